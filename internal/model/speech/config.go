package speech

// VoiceConfig TTS 声音与模型选择，来源于启动配置
type VoiceConfig struct {
	Voice     string `json:"voice,omitempty"`     // 声音名称
	VoiceName string `json:"voiceName,omitempty"` // 声音展示名
	VoiceID   string `json:"voiceId,omitempty"`   // 声音/克隆 ID
	Model     string `json:"model,omitempty"`     // TTS 模型
	Format    string `json:"format,omitempty"`    // 输出格式，默认 mp3
}
