package playback

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/lease-desk/internal/logger"
)

// Player starts audio playback and returns a handle owning the audio resource.
type Player interface {
	Play(audio []byte, format string) (Handle, error)
}

// Handle is an owned, sounding audio resource.
type Handle interface {
	// Stop halts playback and releases the resource. Safe to call repeatedly.
	Stop() error
	// Done is closed once playback ended, naturally or by Stop.
	Done() <-chan struct{}
}

// ExecPlayer pipes audio to an external command such as ffplay.
type ExecPlayer struct {
	command []string
	log     zerolog.Logger
}

// NewExecPlayer returns a player running command with the audio on stdin.
func NewExecPlayer(command []string) (*ExecPlayer, error) {
	if len(command) == 0 {
		return nil, errors.New("player command is empty")
	}
	if _, err := exec.LookPath(command[0]); err != nil {
		return nil, fmt.Errorf("player %s: %w", command[0], err)
	}
	return &ExecPlayer{
		command: append([]string(nil), command...),
		log:     logger.For(logger.Playback),
	}, nil
}

// Play starts the command without waiting for it to finish.
func (p *ExecPlayer) Play(audio []byte, format string) (Handle, error) {
	cmd := exec.Command(p.command[0], p.command[1:]...)
	cmd.Stdin = bytes.NewReader(audio)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start player: %w", err)
	}
	p.log.Debug().Int("pid", cmd.Process.Pid).Str("format", format).Msg("playback started")

	h := &execHandle{cmd: cmd, done: make(chan struct{})}
	go func() {
		h.err = cmd.Wait()
		close(h.done)
	}()
	return h, nil
}

type execHandle struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
	once sync.Once
}

func (h *execHandle) Stop() error {
	var killErr error
	h.once.Do(func() {
		select {
		case <-h.done:
			return
		default:
		}
		if err := h.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			killErr = fmt.Errorf("stop player: %w", err)
		}
	})
	<-h.done
	return killErr
}

func (h *execHandle) Done() <-chan struct{} {
	return h.done
}

// NullPlayer accepts audio and finishes immediately. Used when no player is configured.
type NullPlayer struct{}

func (NullPlayer) Play([]byte, string) (Handle, error) {
	done := make(chan struct{})
	close(done)
	return nullHandle{done: done}, nil
}

type nullHandle struct {
	done chan struct{}
}

func (h nullHandle) Stop() error           { return nil }
func (h nullHandle) Done() <-chan struct{} { return h.done }
