package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"time"

	"github.com/vegasvip13/gemini-tts-1/internal/config"
)

const defaultAPIBase = "https://api.telegram.org"

// DeliveryError reports a failed outbound call to the Bot API
type DeliveryError struct {
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("telegram API returned status %d: %s", e.StatusCode, e.Body)
}

// Client sends messages and voice uploads through the Telegram Bot API
type Client struct {
	token      string
	apiBase    string
	httpClient *http.Client
}

// NewClient creates a new Telegram Bot API client
func NewClient(cfg *config.Config) *Client {
	return &Client{
		token:   cfg.TelegramBotToken,
		apiBase: defaultAPIBase,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.HTTPTimeoutSeconds) * time.Second,
		},
	}
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.apiBase, c.token, method)
}

// SendMessage sends a plain text message to a chat. Callers treat failures as
// best-effort status updates; the error is returned for logging only.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	payload := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal sendMessage payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendMessage"), bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sendMessage request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return &DeliveryError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return nil
}

// SendVoice uploads a WAV container to a chat as a voice message via
// multipart form. A non-success status is returned as a DeliveryError; this
// is the terminal pipeline step, so the caller propagates it.
func (c *Client) SendVoice(ctx context.Context, chatID int64, wav []byte) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		_ = mw.Close()
		return fmt.Errorf("failed to write chat_id field: %w", err)
	}

	// CreateFormFile would tag the part application/octet-stream; the upload
	// must carry the audio container media type.
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="voice"; filename="voice.wav"`)
	header.Set("Content-Type", "audio/wav")
	fw, err := mw.CreatePart(header)
	if err != nil {
		_ = mw.Close()
		return fmt.Errorf("failed to create voice part: %w", err)
	}
	if _, err := fw.Write(wav); err != nil {
		_ = mw.Close()
		return fmt.Errorf("failed to write voice data: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendVoice"), &body)
	if err != nil {
		return fmt.Errorf("failed to create sendVoice request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sendVoice request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return &DeliveryError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return nil
}
