// Package http is the thin webhook adapter in front of the dialogue core.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mesero-labs/mesero/internal/dialogue/application"
)

type Handler struct {
	log       *slog.Logger
	processor *application.Processor
	verify    string
}

func NewHandler(log *slog.Logger, processor *application.Processor, verifyToken string) *Handler {
	return &Handler{log: log, processor: processor, verify: verifyToken}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/webhook", h.verifyWebhook)
	r.Post("/webhook", h.receive)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

// verifyWebhook answers the channel's subscription challenge.
func (h *Handler) verifyWebhook(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.verify_token") != h.verify {
		http.Error(w, "verification failed", http.StatusForbidden)
		return
	}
	_, _ = w.Write([]byte(q.Get("hub.challenge")))
}

type inboundReq struct {
	MessageID string `json:"message_id"`
	From      string `json:"from"`
	Name      string `json:"name"`
	Text      string `json:"text"`
}

func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	var req inboundReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if req.MessageID == "" || req.From == "" {
		http.Error(w, "missing message_id or from", http.StatusBadRequest)
		return
	}

	msg := application.InboundMessage{
		ID:   req.MessageID,
		From: req.From,
		Name: req.Name,
		Text: req.Text,
	}
	if err := h.processor.HandleInbound(r.Context(), msg); err != nil {
		// An unrecorded id must come back: answer non-2xx so the channel
		// redelivers. Any later failure happened after the guard recorded the
		// id, so a redelivery would be dropped as a duplicate; acknowledge
		// and rely on our own logging instead.
		if errors.Is(err, application.ErrGuardUnavailable) {
			http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		h.log.Error("inbound processing failed", "message_id", req.MessageID, "err", err)
	}
	w.WriteHeader(http.StatusOK)
}
