// Package pipeline sequences one inbound chat event through synthesis,
// container encoding and delivery. Each run is independent and carries no
// state across events; failures map to user-visible notifications, and only
// the terminal delivery failure propagates to the caller.
package pipeline

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vegasvip13/gemini-tts-1/internal/audio"
	"github.com/vegasvip13/gemini-tts-1/internal/observability"
	"github.com/vegasvip13/gemini-tts-1/internal/tts"
)

// State identifies a stage of one pipeline run
type State int

const (
	StateReceived State = iota
	StateValidated
	StateNotifying
	StateSynthesizing
	StateEncoding
	StateDelivering
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateValidated:
		return "validated"
	case StateNotifying:
		return "notifying"
	case StateSynthesizing:
		return "synthesizing"
	case StateEncoding:
		return "encoding"
	case StateDelivering:
		return "delivering"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// User-facing notification texts
const (
	msgEmptyText     = "Please send me some text to convert to speech."
	msgWelcome       = "Welcome! Send me any text and I'll reply with a voice message."
	msgProcessing    = "Generating speech..."
	msgSynthFailed   = "Failed to generate speech. Please try again."
	msgDeliverFailed = "Something went wrong while sending your audio. Please try again."
)

const startCommand = "/start"

// Event is one inbound chat message. It lives only for the duration of a
// single Run.
type Event struct {
	ChatID int64
	Text   string
}

// Messenger sends outbound messages for a chat
type Messenger interface {
	// SendMessage sends a text notification (best-effort at call sites)
	SendMessage(ctx context.Context, chatID int64, text string) error
	// SendVoice uploads a WAV container as a voice message
	SendVoice(ctx context.Context, chatID int64, wav []byte) error
}

// ValidationError reports malformed or empty input. It never escapes Run.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// Pipeline runs the request-to-audio delivery sequence for inbound events.
// It is stateless and safe for concurrent use.
type Pipeline struct {
	synth     tts.Synthesizer
	messenger Messenger
	logger    zerolog.Logger
}

// New creates a pipeline over the given synthesis and delivery clients
func New(synth tts.Synthesizer, messenger Messenger, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		synth:     synth,
		messenger: messenger,
		logger:    logger,
	}
}

// Run processes one event to completion. The returned error is non-nil only
// for a delivery failure: the user has already been notified, but the caller
// should still surface it as a server-side failure. Every other failure mode
// is handled with a notification and swallowed.
func (p *Pipeline) Run(ctx context.Context, event Event) error {
	state := StateReceived
	metrics := observability.NewPipelineMetrics()
	logger := p.logger.With().Int64("chat_id", event.ChatID).Logger()

	abort := func(from State) {
		state = StateAborted
		logger.Debug().Stringer("from", from).Msg("Pipeline aborted")
		metrics.RecordPipelineEnd(false)
	}

	// Received -> Validated
	text := strings.TrimSpace(event.Text)
	if text == "" {
		verr := &ValidationError{Reason: "empty message text"}
		logger.Info().Err(verr).Msg("Rejecting event without text")
		metrics.RecordError("validation", "pipeline")
		p.notify(ctx, logger, event.ChatID, msgEmptyText)
		abort(StateReceived)
		return nil
	}
	if text == startCommand {
		logger.Info().Msg("Handling /start command")
		p.notify(ctx, logger, event.ChatID, msgWelcome)
		abort(StateReceived)
		return nil
	}
	state = StateValidated

	// Validated -> Notifying: best-effort progress update
	state = StateNotifying
	p.notify(ctx, logger, event.ChatID, msgProcessing)

	// Notifying -> Synthesizing
	state = StateSynthesizing
	metrics.RecordSynthesisStart()
	raw, err := p.synth.Synthesize(ctx, text)
	if err != nil {
		metrics.RecordSynthesisEnd(false)
		metrics.RecordError("synthesis", "tts")
		logger.Error().Err(err).Msg("Synthesis failed")
		p.notify(ctx, logger, event.ChatID, msgSynthFailed)
		abort(state)
		return nil
	}
	metrics.RecordSynthesisEnd(true)

	// Synthesizing -> Encoding. A buffer that does not divide into whole
	// frames would produce a container whose declared data size lies about
	// its contents, so it is rejected here rather than passed to the encoder.
	state = StateEncoding
	if err := audio.ValidateAlignment(raw.PCM, raw.Channels); err != nil {
		metrics.RecordError("alignment", "audio")
		logger.Error().Err(err).Msg("Synthesized PCM violates frame alignment")
		p.notify(ctx, logger, event.ChatID, msgSynthFailed)
		abort(state)
		return nil
	}
	metrics.RecordAudioBytes(int64(len(raw.PCM)))
	wav := audio.EncodeWAV(raw.PCM, raw.SampleRate, raw.Channels)

	// Encoding -> Delivering
	state = StateDelivering
	metrics.RecordDeliveryStart()
	if err := p.messenger.SendVoice(ctx, event.ChatID, wav); err != nil {
		metrics.RecordDeliveryEnd(false)
		metrics.RecordError("delivery", "telegram")
		logger.Error().Err(err).Msg("Voice delivery failed")
		p.notify(ctx, logger, event.ChatID, msgDeliverFailed)
		abort(state)
		// The user was notified, but the operator should see this too.
		return err
	}
	metrics.RecordDeliveryEnd(true)

	// Delivering -> Done: the voice message itself is the success signal
	state = StateDone
	logger.Info().Int("wav_bytes", len(wav)).Stringer("state", state).Msg("Pipeline completed")
	metrics.RecordPipelineEnd(true)
	return nil
}

// notify sends a best-effort status message. Failures are logged and never
// alter pipeline state.
func (p *Pipeline) notify(ctx context.Context, logger zerolog.Logger, chatID int64, text string) {
	if err := p.messenger.SendMessage(ctx, chatID, text); err != nil {
		logger.Warn().Err(err).Str("text", text).Msg("Notification failed")
	}
}
