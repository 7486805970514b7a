package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vegasvip13/gemini-tts-1/internal/config"
)

const defaultAPIBase = "https://generativelanguage.googleapis.com/v1beta"

// GeminiClient implements Synthesizer using the Gemini generateContent API
// with the audio response modality.
//
// The provider returns raw 16-bit PCM; the sample rate and channel count come
// from configuration, not from the response. They must be kept in sync with
// the provider contract for this request shape.
type GeminiClient struct {
	apiKey     string
	apiBase    string
	model      string
	voice      string
	sampleRate int
	channels   int
	httpClient *http.Client
}

// geminiRequest is the generateContent payload for speech synthesis
type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	ResponseModalities []string           `json:"responseModalities"`
	SpeechConfig       geminiSpeechConfig `json:"speechConfig"`
}

type geminiSpeechConfig struct {
	VoiceConfig geminiVoiceConfig `json:"voiceConfig"`
}

type geminiVoiceConfig struct {
	PrebuiltVoiceConfig geminiPrebuiltVoice `json:"prebuiltVoiceConfig"`
}

type geminiPrebuiltVoice struct {
	VoiceName string `json:"voiceName"`
}

// geminiResponse holds the slice of the response we care about: the base64
// audio payload at candidates[0].content.parts[0].inlineData.data.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				InlineData *struct {
					MimeType string `json:"mimeType"`
					Data     string `json:"data"`
				} `json:"inlineData"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// NewGeminiClient creates a new Gemini TTS client
func NewGeminiClient(cfg *config.Config) *GeminiClient {
	return &GeminiClient{
		apiKey:     cfg.GeminiAPIKey,
		apiBase:    defaultAPIBase,
		model:      cfg.GeminiModel,
		voice:      cfg.GeminiVoice,
		sampleRate: cfg.AudioSampleRate,
		channels:   cfg.AudioChannels,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.HTTPTimeoutSeconds) * time.Second,
		},
	}
}

// Synthesize converts text to raw PCM audio via a single generateContent call
func (c *GeminiClient) Synthesize(ctx context.Context, text string) (*RawAudio, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: text}}},
		},
		GenerationConfig: geminiGenerationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: geminiSpeechConfig{
				VoiceConfig: geminiVoiceConfig{
					PrebuiltVoiceConfig: geminiPrebuiltVoice{VoiceName: c.voice},
				},
			},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &SynthesisError{Reason: "failed to marshal request", Err: err}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.apiBase, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, &SynthesisError{Reason: "failed to create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &SynthesisError{Reason: "provider unreachable", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &SynthesisError{Reason: "failed to read response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &SynthesisError{
			Reason:     "provider returned non-success status",
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &SynthesisError{Reason: "malformed response body", Err: err}
	}

	data, err := extractInlineData(&parsed)
	if err != nil {
		return nil, &SynthesisError{Reason: "response missing audio payload", Err: err}
	}

	pcm, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, &SynthesisError{Reason: "audio payload is not valid base64", Err: err}
	}

	return &RawAudio{
		PCM:        pcm,
		SampleRate: c.sampleRate,
		Channels:   c.channels,
	}, nil
}

// extractInlineData walks the fixed path to the embedded audio field
func extractInlineData(r *geminiResponse) (string, error) {
	if len(r.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}
	parts := r.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return "", fmt.Errorf("candidate has no content parts")
	}
	inline := parts[0].InlineData
	if inline == nil || inline.Data == "" {
		return "", fmt.Errorf("first part has no inline audio data")
	}
	return inline.Data, nil
}
