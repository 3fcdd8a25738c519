package playback

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/lease-desk/internal/logger"
	speechmodel "github.com/zhouzirui/lease-desk/internal/model/speech"
)

// ErrSuperseded is returned by Speak when a newer Speak call took over.
var ErrSuperseded = errors.New("playback superseded by a newer request")

// Synthesizer turns text into audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*speechmodel.TTSResponse, error)
}

// Notifier receives playback failures. Chat history is never touched.
type Notifier interface {
	NotifyError(err error)
}

// Session is the single active playback.
type Session struct {
	MessageID string
	handle    Handle
}

// Controller owns at most one playback session. Starting a new one always
// stops the previous one first, and a newer Speak cancels an older one still
// waiting on synthesis.
type Controller struct {
	synth    Synthesizer
	player   Player
	notifier Notifier
	log      zerolog.Logger

	mu        sync.Mutex
	gen       uint64
	cancel    context.CancelFunc
	loadingID string
	active    *Session
	closed    bool
}

// NewController wires a controller. A nil player means NullPlayer.
func NewController(synth Synthesizer, player Player, notifier Notifier) *Controller {
	if player == nil {
		player = NullPlayer{}
	}
	return &Controller{
		synth:    synth,
		player:   player,
		notifier: notifier,
		log:      logger.For(logger.Playback),
	}
}

// Speak synthesizes text and plays it as messageID. Blank text is a no-op.
func (c *Controller) Speak(ctx context.Context, text, messageID string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("playback controller closed")
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	gen := c.gen
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.loadingID = messageID
	c.mu.Unlock()
	defer cancel()

	resp, err := c.synth.Synthesize(ctx, text)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || c.closed {
		return ErrSuperseded
	}
	c.cancel = nil
	c.loadingID = ""

	if err != nil {
		c.log.Warn().Err(err).Str("messageId", messageID).Msg("speech synthesis failed")
		c.notify(err)
		return err
	}

	c.stopLocked()

	handle, err := c.player.Play(resp.AudioData, resp.Format)
	if err != nil {
		c.log.Warn().Err(err).Str("messageId", messageID).Msg("playback failed to start")
		c.notify(err)
		return err
	}

	session := &Session{MessageID: messageID, handle: handle}
	c.active = session
	go c.release(session)

	c.log.Debug().Str("messageId", messageID).Msg("playback session started")
	return nil
}

// LoadingID returns the message whose audio is being synthesized, if any.
func (c *Controller) LoadingID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadingID
}

// Active returns the message currently sounding.
func (c *Controller) Active() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return "", false
	}
	return c.active.MessageID, true
}

// Stop halts the active session and cancels any pending synthesis.
func (c *Controller) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	stopped := c.active != nil || c.cancel != nil
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
		c.gen++
	}
	c.loadingID = ""
	c.stopLocked()
	return stopped
}

// Close stops playback and rejects further Speak calls.
func (c *Controller) Close() error {
	c.Stop()
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *Controller) stopLocked() {
	if c.active == nil {
		return
	}
	if err := c.active.handle.Stop(); err != nil {
		c.log.Debug().Err(err).Str("messageId", c.active.MessageID).Msg("stop playback")
	}
	c.active = nil
}

// release clears the slot once the session finishes on its own.
func (c *Controller) release(s *Session) {
	<-s.handle.Done()

	c.mu.Lock()
	if c.active == s {
		c.active = nil
	}
	c.mu.Unlock()
}

func (c *Controller) notify(err error) {
	if c.notifier != nil {
		c.notifier.NotifyError(err)
	}
}
