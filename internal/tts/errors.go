package tts

import "errors"

// Common errors for the speech subsystem.
var (
	// Engine errors
	ErrEngineNotAvailable = errors.New("speech engine is not available")
	ErrVoiceNotFound      = errors.New("requested voice not found")
	ErrSynthesisFailed    = errors.New("audio synthesis failed")
	ErrEmptyText          = errors.New("no text to synthesize")
	ErrTextTooLong        = errors.New("text exceeds engine limit")
	ErrEngineClosed       = errors.New("engine has been closed")

	// Player errors
	ErrPlayerClosed       = errors.New("audio player is closed")
	ErrNothingToPlay      = errors.New("no audio to play")
	ErrInvalidAudioFormat = errors.New("invalid audio format")

	// Queue errors
	ErrQueueClosed = errors.New("speech queue is closed")
	ErrQueueEmpty  = errors.New("speech queue is empty")
)

// IsRecoverable reports whether the dispatcher may retry or fall back
// after the given error. Unavailable or closed components are permanent.
func IsRecoverable(err error) bool {
	if err == nil {
		return true
	}
	switch {
	case errors.Is(err, ErrEngineNotAvailable),
		errors.Is(err, ErrEngineClosed),
		errors.Is(err, ErrPlayerClosed),
		errors.Is(err, ErrQueueClosed):
		return false
	}
	return true
}
