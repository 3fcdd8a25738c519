package coordinator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/lease-desk/internal/analysis/maintenance"
	"github.com/zhouzirui/lease-desk/internal/logger"
	"github.com/zhouzirui/lease-desk/internal/model/chat"
	"github.com/zhouzirui/lease-desk/internal/model/request"
	"github.com/zhouzirui/lease-desk/internal/service/assistant"
	"github.com/zhouzirui/lease-desk/internal/service/attachment"
	chatservice "github.com/zhouzirui/lease-desk/internal/service/chat"
)

// WelcomeText seeds a fresh transcript.
const WelcomeText = "Hello! I'm here to help you manage maintenance requests. You can describe issues and I'll help create requests automatically."

var (
	// ErrNothingToSay is returned by Speak for messages that cannot be read aloud.
	ErrNothingToSay = errors.New("message has no assistant text to speak")
	// ErrPlaybackDisabled is returned by Speak when no speaker is configured.
	ErrPlaybackDisabled = errors.New("playback is disabled")
)

// Transport delivers one message to the assistant.
type Transport interface {
	Send(ctx context.Context, req assistant.Request, sink assistant.Sink) assistant.Result
}

// Speaker reads assistant messages aloud.
type Speaker interface {
	Speak(ctx context.Context, text, messageID string) error
	Stop() bool
	Close() error
}

// Session identifies the tenant the transcript belongs to.
type Session struct {
	TenantEmail string
	LeaseID     int
}

// Deps are the collaborators of the coordinator. Speaker and Observer are optional.
type Deps struct {
	Transcript  *chatservice.Service
	Attachments *attachment.Manager
	Transport   Transport
	Speaker     Speaker
	Observer    Observer
	Session     Session
	Welcome     string
}

// Coordinator sequences one submission: user message, classification,
// placeholder reply, transport, settle.
type Coordinator struct {
	transcript  *chatservice.Service
	attachments *attachment.Manager
	transport   Transport
	speaker     Speaker
	observer    Observer
	session     Session
	log         zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// New creates a coordinator whose in-flight submissions live until Close.
func New(deps Deps) *Coordinator {
	observer := deps.Observer
	if observer == nil {
		observer = Nop{}
	}
	transcript := deps.Transcript
	if transcript == nil {
		transcript = chatservice.NewService()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		transcript:  transcript,
		attachments: deps.Attachments,
		transport:   deps.Transport,
		speaker:     deps.Speaker,
		observer:    observer,
		session:     deps.Session,
		log:         logger.For(logger.Coordinator),
		ctx:         ctx,
		cancel:      cancel,
	}

	if deps.Welcome != "" && transcript.Len() == 0 {
		_, _ = transcript.Append(ctx, chat.Message{
			Origin:    chat.OriginAssistant,
			Content:   deps.Welcome,
			Finalized: true,
		})
	}
	return c
}

// Submission tracks one in-flight exchange.
type Submission struct {
	UserMessageID      string
	AssistantMessageID string
	Draft              *request.Draft

	done   chan struct{}
	result assistant.Result
}

// Done is closed once the assistant reply is final.
func (s *Submission) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the reply settles or ctx ends.
func (s *Submission) Wait(ctx context.Context) (assistant.Result, error) {
	select {
	case <-s.done:
		return s.result, nil
	case <-ctx.Done():
		return assistant.Result{}, ctx.Err()
	}
}

// Submit sends text together with the pending attachments. It reports false,
// without touching any state, when there is nothing to send.
func (c *Coordinator) Submit(text string) (*Submission, bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, false
	}
	c.wg.Add(1)
	c.mu.Unlock()

	var files []chat.Attachment
	if c.attachments != nil {
		files = c.attachments.Take()
	}
	if strings.TrimSpace(text) == "" && len(files) == 0 {
		c.wg.Done()
		return nil, false
	}

	userMsg, err := c.transcript.Append(c.ctx, chat.Message{
		Origin:      chat.OriginUser,
		Content:     text,
		Finalized:   true,
		Attachments: files,
	})
	if c.attachments != nil {
		c.attachments.Release(files)
	}
	if err != nil {
		c.wg.Done()
		c.log.Error().Err(err).Msg("append user message")
		return nil, false
	}
	c.observer.MessageUpdated(userMsg)

	draft := maintenance.Classify(text, files)
	if draft != nil {
		c.log.Info().Str("request", draft.ID).Str("urgency", string(draft.Urgency)).
			Str("category", string(draft.Category)).Msg("maintenance request observed")
		c.observer.RequestObserved(*draft)
	}

	placeholder, err := c.transcript.Append(c.ctx, chat.Message{Origin: chat.OriginAssistant})
	if err != nil {
		c.wg.Done()
		c.log.Error().Err(err).Msg("append assistant placeholder")
		return nil, false
	}
	c.observer.MessageUpdated(placeholder)

	sub := &Submission{
		UserMessageID:      userMsg.ID,
		AssistantMessageID: placeholder.ID,
		Draft:              draft,
		done:               make(chan struct{}),
	}

	req := assistant.Request{
		Prompt:      text,
		TenantEmail: c.session.TenantEmail,
		LeaseID:     c.session.LeaseID,
	}
	if draft != nil {
		req.Meta = &assistant.Meta{RequestID: draft.ID}
	}

	go c.respond(sub, req)
	return sub, true
}

func (c *Coordinator) respond(sub *Submission, req assistant.Request) {
	defer c.wg.Done()
	defer close(sub.done)

	started := time.Now()
	sink := assistant.SinkFuncs{
		Incremental: func(text string) {
			msg, err := c.transcript.UpdateContent(c.ctx, sub.AssistantMessageID, text)
			if err != nil {
				c.log.Debug().Err(err).Str("messageId", sub.AssistantMessageID).Msg("drop incremental text")
				return
			}
			c.observer.MessageUpdated(msg)
		},
		Final: func(text string) {
			msg, err := c.transcript.Finalize(c.ctx, sub.AssistantMessageID, text)
			if err != nil {
				c.log.Warn().Err(err).Str("messageId", sub.AssistantMessageID).Msg("finalize reply")
				return
			}
			c.observer.MessageUpdated(msg)
		},
		Error: c.observer.NotifyError,
	}

	sub.result = c.transport.Send(c.ctx, req, sink)
	c.log.Debug().
		Str("messageId", sub.AssistantMessageID).
		Bool("streamed", sub.result.Streamed).
		Dur("elapsed", time.Since(started)).
		Msg("assistant reply settled")

	c.observer.AssistantResponded(sub.result.Text, sub.Draft)
}

// Messages returns the transcript in order.
func (c *Coordinator) Messages() []chat.Message {
	return c.transcript.Transcript(c.ctx)
}

// Message returns one transcript entry.
func (c *Coordinator) Message(id string) (chat.Message, error) {
	return c.transcript.Get(c.ctx, id)
}

// Attachments exposes the pending attachment set.
func (c *Coordinator) Attachments() *attachment.Manager {
	return c.attachments
}

// Speak reads a completed assistant message aloud.
func (c *Coordinator) Speak(ctx context.Context, messageID string) error {
	if c.speaker == nil {
		return ErrPlaybackDisabled
	}
	msg, err := c.transcript.Get(ctx, messageID)
	if err != nil {
		return err
	}
	if !msg.IsAssistant() || !msg.Finalized || strings.TrimSpace(msg.Content) == "" {
		return ErrNothingToSay
	}
	return c.speaker.Speak(ctx, msg.Content, msg.ID)
}

// StopPlayback halts the active playback session, if any.
func (c *Coordinator) StopPlayback() bool {
	if c.speaker == nil {
		return false
	}
	return c.speaker.Stop()
}

// Close releases pending attachments, stops playback and cancels in-flight
// submissions, waiting for them to settle.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()

	var errs []error
	if c.attachments != nil {
		errs = append(errs, c.attachments.Close())
	}
	if c.speaker != nil {
		errs = append(errs, c.speaker.Close())
	}
	return errors.Join(errs...)
}
