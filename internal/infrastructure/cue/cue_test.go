package cue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandPlayerRequiresConfiguration(t *testing.T) {
	assert.Error(t, NewCommandPlayer("", "sound.wav").Play())
	assert.Error(t, NewCommandPlayer("aplay", "").Play())
}

func TestCommandPlayerRunsCommand(t *testing.T) {
	// "true" acepta cualquier argumento y termina con éxito
	assert.NoError(t, NewCommandPlayer("true", "sound.wav").Play())
	assert.Error(t, NewCommandPlayer("false", "sound.wav").Play())
}

func TestCommandPlayerUnknownBinary(t *testing.T) {
	assert.Error(t, NewCommandPlayer("definitely-not-a-player", "sound.wav").Play())
}

func TestNoopPlayer(t *testing.T) {
	assert.NoError(t, NoopPlayer{}.Play())
}
