package speech

// TTSRequest 发往助手服务 /tts 的请求体。
// 同一个声音 ID 会同时写入四个别名字段，服务端按各自的命名读取。
type TTSRequest struct {
	Text         string `json:"text"`
	Format       string `json:"format"`
	Voice        string `json:"voice,omitempty"`
	VoiceName    string `json:"voiceName,omitempty"`
	VoiceID      string `json:"voiceId,omitempty"`
	VoiceIDSnake string `json:"voice_id,omitempty"`
	VoiceCloneID string `json:"voiceCloneId,omitempty"`
	CloneIDSnake string `json:"voice_clone_id,omitempty"`
	Model        string `json:"model,omitempty"`
}

// NewTTSRequest 根据声音配置构造请求。
func NewTTSRequest(text string, voice VoiceConfig) TTSRequest {
	format := voice.Format
	if format == "" {
		format = "mp3"
	}

	req := TTSRequest{
		Text:      text,
		Format:    format,
		Voice:     voice.Voice,
		VoiceName: voice.VoiceName,
		Model:     voice.Model,
	}
	if voice.VoiceID != "" {
		req.VoiceID = voice.VoiceID
		req.VoiceIDSnake = voice.VoiceID
		req.VoiceCloneID = voice.VoiceID
		req.CloneIDSnake = voice.VoiceID
	}
	return req
}
