package speech

import "time"

// TTSResponse 语音合成结果
type TTSResponse struct {
	AudioData   []byte    `json:"-"`
	Format      string    `json:"format"`
	ContentType string    `json:"contentType,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ErrorBody 合成失败时服务端可能返回的 JSON。
type ErrorBody struct {
	Detail string `json:"detail"`
}
