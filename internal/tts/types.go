package tts

import (
	"context"
	"fmt"
)

// RawAudio is decoded linear PCM ready for container framing
type RawAudio struct {
	PCM        []byte // 16-bit little-endian signed samples
	SampleRate int    // Sample rate in Hz
	Channels   int    // Number of channels (1 for mono)
}

// Synthesizer defines the interface for a text-to-speech client
type Synthesizer interface {
	// Synthesize converts text to raw PCM audio
	Synthesize(ctx context.Context, text string) (*RawAudio, error)
}

// SynthesisError reports a failed synthesis call. StatusCode and Body are
// zero-valued when the failure happened before a response was received.
type SynthesisError struct {
	Reason     string
	StatusCode int
	Body       string
	Err        error
}

func (e *SynthesisError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("synthesis failed: %s (status %d): %s", e.Reason, e.StatusCode, e.Body)
	}
	if e.Err != nil {
		return fmt.Sprintf("synthesis failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("synthesis failed: %s", e.Reason)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}
