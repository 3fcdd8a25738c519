package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/lease-desk/internal/logger"
	speechmodel "github.com/zhouzirui/lease-desk/internal/model/speech"
	"github.com/zhouzirui/lease-desk/pkg/utils"
)

// ErrSynthesisFailed 合成请求无法完成（网络错误或响应无法读取）。
var ErrSynthesisFailed = errors.New("synthesis failed")

// SynthesisError 服务端返回非 2xx 时的错误，Detail 来自响应 JSON。
type SynthesisError struct {
	StatusCode int
	Detail     string
}

func (e *SynthesisError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("TTS failed (HTTP %d)", e.StatusCode)
}

// Options TTS 客户端配置
type Options struct {
	BaseURL     string
	BearerToken string
	Voice       speechmodel.VoiceConfig
	Timeout     time.Duration
	HTTPClient  *http.Client
}

// Client 调用助手服务的 /tts 接口
type Client struct {
	baseURL string
	token   string
	voice   speechmodel.VoiceConfig
	timeout time.Duration
	http    *http.Client
	log     zerolog.Logger
}

// NewClient 创建 TTS 客户端
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = utils.NewHTTPClient(timeout)
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   strings.TrimSpace(opts.BearerToken),
		voice:   opts.Voice,
		timeout: timeout,
		http:    httpClient,
		log:     logger.For(logger.Speech),
	}
}

// Synthesize 文字转语音，返回完整的音频数据
func (c *Client) Synthesize(ctx context.Context, text string) (*speechmodel.TTSResponse, error) {
	payload, err := json.Marshal(speechmodel.NewTTSRequest(text, c.voice))
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrSynthesisFailed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tts", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// 调用方取消时保留 context 错误，便于区分“被新的播放请求打断”
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &SynthesisError{StatusCode: resp.StatusCode, Detail: readDetail(resp.Body)}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: read audio: %v", ErrSynthesisFailed, err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: empty audio", ErrSynthesisFailed)
	}

	format := c.voice.Format
	if format == "" {
		format = "mp3"
	}

	c.log.Debug().Int("bytes", len(audio)).Str("format", format).Msg("speech synthesized")
	return &speechmodel.TTSResponse{
		AudioData:   audio,
		Format:      format,
		ContentType: resp.Header.Get("Content-Type"),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

func readDetail(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var parsed speechmodel.ErrorBody
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return ""
	}
	return strings.TrimSpace(parsed.Detail)
}
