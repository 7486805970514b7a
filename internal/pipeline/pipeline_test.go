package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/vegasvip13/gemini-tts-1/internal/telegram"
	"github.com/vegasvip13/gemini-tts-1/internal/tts"
)

type fakeSynthesizer struct {
	audio *tts.RawAudio
	err   error
	calls int
}

func (f *fakeSynthesizer) Synthesize(ctx context.Context, text string) (*tts.RawAudio, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.audio, nil
}

type fakeMessenger struct {
	messages   []string
	messageErr error
	voiceData  [][]byte
	voiceErr   error
}

func (f *fakeMessenger) SendMessage(ctx context.Context, chatID int64, text string) error {
	f.messages = append(f.messages, text)
	return f.messageErr
}

func (f *fakeMessenger) SendVoice(ctx context.Context, chatID int64, wav []byte) error {
	f.voiceData = append(f.voiceData, wav)
	return f.voiceErr
}

func newTestPipeline(synth *fakeSynthesizer, messenger *fakeMessenger) *Pipeline {
	return New(synth, messenger, zerolog.Nop())
}

func validAudio() *tts.RawAudio {
	return &tts.RawAudio{
		PCM:        []byte{0x01, 0x02, 0x03, 0x04},
		SampleRate: 24000,
		Channels:   1,
	}
}

func TestRun_Success(t *testing.T) {
	synth := &fakeSynthesizer{audio: validAudio()}
	messenger := &fakeMessenger{}
	p := newTestPipeline(synth, messenger)

	err := p.Run(context.Background(), Event{ChatID: 42, Text: "hello world"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if synth.calls != 1 {
		t.Errorf("Expected 1 synthesis call, got %d", synth.calls)
	}
	if len(messenger.voiceData) != 1 {
		t.Fatalf("Expected 1 voice upload, got %d", len(messenger.voiceData))
	}
	// 4 bytes of PCM framed by the 44-byte container header
	if len(messenger.voiceData[0]) != 48 {
		t.Errorf("Expected 48-byte container, got %d bytes", len(messenger.voiceData[0]))
	}

	// Only the processing notification, no failure message afterwards
	if len(messenger.messages) != 1 || messenger.messages[0] != msgProcessing {
		t.Errorf("Expected only the processing notification, got %v", messenger.messages)
	}
}

func TestRun_EmptyText(t *testing.T) {
	tests := []string{"", "   ", "\n\t "}

	for _, text := range tests {
		synth := &fakeSynthesizer{audio: validAudio()}
		messenger := &fakeMessenger{}
		p := newTestPipeline(synth, messenger)

		err := p.Run(context.Background(), Event{ChatID: 42, Text: text})
		if err != nil {
			t.Fatalf("Run(%q) returned error: %v", text, err)
		}

		if synth.calls != 0 {
			t.Errorf("Run(%q): expected no synthesis calls, got %d", text, synth.calls)
		}
		if len(messenger.voiceData) != 0 {
			t.Errorf("Run(%q): expected no voice uploads", text)
		}
		if len(messenger.messages) != 1 || messenger.messages[0] != msgEmptyText {
			t.Errorf("Run(%q): expected empty-text notification, got %v", text, messenger.messages)
		}
	}
}

func TestRun_StartCommand(t *testing.T) {
	synth := &fakeSynthesizer{audio: validAudio()}
	messenger := &fakeMessenger{}
	p := newTestPipeline(synth, messenger)

	err := p.Run(context.Background(), Event{ChatID: 42, Text: "/start"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if synth.calls != 0 {
		t.Errorf("Expected no synthesis calls for /start, got %d", synth.calls)
	}
	if len(messenger.voiceData) != 0 {
		t.Error("Expected no voice uploads for /start")
	}
	if len(messenger.messages) != 1 || messenger.messages[0] != msgWelcome {
		t.Errorf("Expected welcome notification, got %v", messenger.messages)
	}
}

func TestRun_SynthesisFailure(t *testing.T) {
	synth := &fakeSynthesizer{err: &tts.SynthesisError{Reason: "provider returned non-success status", StatusCode: 500}}
	messenger := &fakeMessenger{}
	p := newTestPipeline(synth, messenger)

	err := p.Run(context.Background(), Event{ChatID: 42, Text: "hello"})
	if err != nil {
		t.Fatalf("Synthesis failure must not propagate, got: %v", err)
	}

	if len(messenger.voiceData) != 0 {
		t.Error("Expected no voice uploads after synthesis failure")
	}
	want := []string{msgProcessing, msgSynthFailed}
	if len(messenger.messages) != 2 || messenger.messages[0] != want[0] || messenger.messages[1] != want[1] {
		t.Errorf("Expected notifications %v, got %v", want, messenger.messages)
	}
}

func TestRun_MisalignedPCM(t *testing.T) {
	synth := &fakeSynthesizer{audio: &tts.RawAudio{
		PCM:        []byte{0x01, 0x02, 0x03}, // not a whole number of 16-bit frames
		SampleRate: 24000,
		Channels:   1,
	}}
	messenger := &fakeMessenger{}
	p := newTestPipeline(synth, messenger)

	err := p.Run(context.Background(), Event{ChatID: 42, Text: "hello"})
	if err != nil {
		t.Fatalf("Alignment failure must not propagate, got: %v", err)
	}

	if len(messenger.voiceData) != 0 {
		t.Error("Expected no voice uploads for misaligned PCM")
	}
	if len(messenger.messages) != 2 || messenger.messages[1] != msgSynthFailed {
		t.Errorf("Expected failure notification, got %v", messenger.messages)
	}
}

func TestRun_DeliveryFailure(t *testing.T) {
	delivErr := &telegram.DeliveryError{StatusCode: 400, Body: `{"ok":false}`}
	synth := &fakeSynthesizer{audio: validAudio()}
	messenger := &fakeMessenger{voiceErr: delivErr}
	p := newTestPipeline(synth, messenger)

	err := p.Run(context.Background(), Event{ChatID: 42, Text: "hello"})
	if err == nil {
		t.Fatal("Expected delivery failure to propagate")
	}

	var got *telegram.DeliveryError
	if !errors.As(err, &got) {
		t.Fatalf("Expected DeliveryError, got %T", err)
	}
	if got.StatusCode != 400 {
		t.Errorf("Expected status 400, got %d", got.StatusCode)
	}

	// The user still gets a human-readable failure message
	want := []string{msgProcessing, msgDeliverFailed}
	if len(messenger.messages) != 2 || messenger.messages[1] != want[1] {
		t.Errorf("Expected notifications %v, got %v", want, messenger.messages)
	}
}

func TestRun_NotificationFailureDoesNotAbort(t *testing.T) {
	synth := &fakeSynthesizer{audio: validAudio()}
	messenger := &fakeMessenger{messageErr: errors.New("notification send failed")}
	p := newTestPipeline(synth, messenger)

	err := p.Run(context.Background(), Event{ChatID: 42, Text: "hello"})
	if err != nil {
		t.Fatalf("Notification failure must not abort the pipeline, got: %v", err)
	}

	if synth.calls != 1 {
		t.Errorf("Expected synthesis to proceed, got %d calls", synth.calls)
	}
	if len(messenger.voiceData) != 1 {
		t.Errorf("Expected voice upload to proceed, got %d", len(messenger.voiceData))
	}
}

func TestRun_TextIsTrimmedBeforeSynthesis(t *testing.T) {
	synth := &fakeSynthesizer{audio: validAudio()}
	messenger := &fakeMessenger{}
	p := newTestPipeline(synth, messenger)

	if err := p.Run(context.Background(), Event{ChatID: 42, Text: "  /start  "}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if synth.calls != 0 {
		t.Error("Expected trimmed /start to short-circuit")
	}
}
