package assistant

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
	"github.com/zhouzirui/lease-desk/internal/service/stream"
	"github.com/zhouzirui/lease-desk/pkg/utils"
)

const (
	streamPath   = "/chat/stream"
	fallbackPath = "/chat"

	maxErrorBody = 512
)

// Options configures the assistant client.
type Options struct {
	BaseURL     string
	BearerToken string
	Timeout     time.Duration
	HTTPClient  *http.Client
}

// Result summarizes a settled Send.
type Result struct {
	Text     string
	Streamed bool
	Err      error
}

// Client talks to the remote assistant. It prefers the streaming endpoint and
// falls back to a single blocking call when the stream cannot be opened.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *http.Client
	log     zerolog.Logger
}

// NewClient builds a client for opts.BaseURL.
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
		timeout: timeout,
		http:    httpClient,
		log:     logger.For(logger.Transport),
	}
}

// BaseURL returns the resolved assistant base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Send delivers req and reports progress to sink. It always settles with
// exactly one OnFinalText; failures additionally reach OnError.
func (c *Client) Send(ctx context.Context, req Request, sink Sink) Result {
	body, err := json.Marshal(req)
	if err != nil {
		return c.fail(req, sink, fmt.Errorf("encode chat request: %w", err))
	}

	resp, err := c.openStream(ctx, body)
	if err == nil {
		text, err := c.consume(resp, sink)
		if err != nil {
			return c.fail(req, sink, fmt.Errorf("read chat stream: %w", err))
		}
		final := finalText(text, req.DraftID())
		sink.OnFinalText(final)
		return Result{Text: final, Streamed: true}
	}
	c.log.Debug().Err(err).Msg("stream unavailable, falling back")

	text, err := c.fallback(ctx, body)
	if err != nil {
		return c.fail(req, sink, err)
	}
	final := finalText(text, req.DraftID())
	sink.OnFinalText(final)
	return Result{Text: final}
}

func (c *Client) fail(req Request, sink Sink, err error) Result {
	c.log.Warn().Err(err).Str("requestId", req.DraftID()).Msg("assistant unreachable")
	text := UnreachableText(req.DraftID())
	sink.OnFinalText(text)
	sink.OnError(err)
	return Result{Text: text, Err: err}
}

func (c *Client) openStream(ctx context.Context, body []byte) (*http.Response, error) {
	httpReq, err := c.newRequest(ctx, streamPath, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, statusError(streamPath, resp)
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		if resp.Body != nil {
			resp.Body.Close()
		}
		return nil, errors.New("chat stream returned no body")
	}
	return resp, nil
}

// consume folds text deltas into the running content, space-joined, and
// surfaces the content after every text frame.
func (c *Client) consume(resp *http.Response, sink Sink) (string, error) {
	events := stream.Events(resp.Body)
	defer events.Close()

	var content strings.Builder
	for {
		ev, err := events.Recv()
		if errors.Is(err, io.EOF) {
			return content.String(), nil
		}
		if err != nil {
			return content.String(), err
		}
		if !ev.IsText() {
			continue
		}

		if content.Len() > 0 {
			content.WriteByte(' ')
		}
		content.WriteString(ev.Message)
		sink.OnIncrementalText(content.String())
	}
}

func (c *Client) fallback(ctx context.Context, body []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := c.newRequest(ctx, fallbackPath, body)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", statusError(fallbackPath, resp)
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	return payload.Text, nil
}

func (c *Client) newRequest(ctx context.Context, path string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func statusError(endpoint string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		Endpoint:   endpoint,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(raw)),
	}
}
