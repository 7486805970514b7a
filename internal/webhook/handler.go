// Package webhook is the HTTP boundary: it parses inbound Telegram updates
// and hands them to the pipeline. The HTTP acknowledgment is generic; the
// pipeline talks to the user through its own notifications.
package webhook

import (
	"encoding/json"
	"net/http"

	"github.com/vegasvip13/gemini-tts-1/internal/observability"
	"github.com/vegasvip13/gemini-tts-1/internal/pipeline"
)

// Update is the subset of the Telegram update shape this service consumes
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is an inbound chat message
type Message struct {
	Chat Chat   `json:"chat"`
	Text string `json:"text"`
}

// Chat identifies the conversation a message belongs to
type Chat struct {
	ID int64 `json:"id"`
}

type ackResponse struct {
	OK bool `json:"ok"`
}

// Handler returns the webhook endpoint. Each request is processed to
// completion on its own goroutine (net/http's per-request model); concurrent
// updates share no mutable state.
func Handler(p *pipeline.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		eventID := observability.NewEventID()
		logger := observability.WithEventID(eventID)

		var update Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			observability.RecordWebhookEvent(false)
			logger.Warn().Err(err).Msg("Rejecting malformed update payload")
			http.Error(w, "invalid update payload", http.StatusBadRequest)
			return
		}

		// Updates without a message (edits, channel posts) are acknowledged
		// and skipped; Telegram would otherwise redeliver them.
		if update.Message == nil || update.Message.Chat.ID == 0 {
			observability.RecordWebhookEvent(false)
			logger.Debug().Int64("update_id", update.UpdateID).Msg("Ignoring update without message")
			writeAck(w, http.StatusOK)
			return
		}

		observability.RecordWebhookEvent(true)
		logger.Info().
			Int64("update_id", update.UpdateID).
			Int64("chat_id", update.Message.Chat.ID).
			Msg("Processing update")

		event := pipeline.Event{
			ChatID: update.Message.Chat.ID,
			Text:   update.Message.Text,
		}

		if err := p.Run(r.Context(), event); err != nil {
			// Delivery failed after the user was already notified; report a
			// server-side failure for operator visibility.
			logger.Error().Err(err).Msg("Pipeline surfaced delivery failure")
			writeAck(w, http.StatusInternalServerError)
			return
		}

		writeAck(w, http.StatusOK)
	}
}

func writeAck(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ackResponse{OK: status == http.StatusOK})
}
