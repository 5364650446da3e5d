package cue

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"time"
)

// Player reproduce la señal sonora que acompaña a una notificación. La
// reproducción es de mejor esfuerzo: el llamador descarta cualquier error.
type Player interface {
	Play() error
}

// CommandPlayer invoca un reproductor externo con el asset configurado
type CommandPlayer struct {
	command string
	asset   string
	timeout time.Duration
}

// NewCommandPlayer crea un CommandPlayer
func NewCommandPlayer(command, asset string) *CommandPlayer {
	return &CommandPlayer{
		command: command,
		asset:   asset,
		timeout: 5 * time.Second,
	}
}

// Play ejecuta el reproductor externo
func (p *CommandPlayer) Play() error {
	if p.command == "" || p.asset == "" {
		return errors.New("cue player not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.command, p.asset)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard

	return cmd.Run()
}

// NoopPlayer descarta la señal; se usa cuando la señal está deshabilitada
type NoopPlayer struct{}

// Play no hace nada
func (NoopPlayer) Play() error {
	return nil
}
