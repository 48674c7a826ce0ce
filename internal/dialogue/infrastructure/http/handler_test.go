package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesero-labs/mesero/internal/dialogue/application"
)

func testHandler() *Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(log, nil, "secreto")
}

type failingGuard struct{ err error }

func (g failingGuard) SeenOrRecord(context.Context, string) (bool, error) {
	return false, g.err
}

// guardDownHandler wires a processor whose guard always errors. The turn
// stops at the guard, so the remaining ports are never touched.
func guardDownHandler() *Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	flows := application.NewFlows(log, application.Config{}, nil, nil, nil, nil, nil, nil, nil, nil, nil)
	dispatcher := application.NewDispatcher(log, flows)
	processor := application.NewProcessor(log, application.Config{},
		failingGuard{err: errors.New("redis unreachable")}, nil, nil, nil, nil, dispatcher)
	return NewHandler(log, processor, "secreto")
}

func TestReceiveAnswers503WhenGuardIsDown(t *testing.T) {
	h := guardDownHandler()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/webhook",
		strings.NewReader(`{"message_id":"wamid.9","from":"5215550001","text":"hola"}`))

	h.Routes().ServeHTTP(rec, req)

	// Non-2xx makes the channel redeliver the message the guard never
	// recorded.
	assert.Equal(t, 503, rec.Code)
}

func TestVerifyWebhookEchoesChallenge(t *testing.T) {
	h := testHandler()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/webhook?hub.verify_token=secreto&hub.challenge=12345", nil)

	h.Routes().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.Equal(t, "12345", rec.Body.String())
}

func TestVerifyWebhookRejectsBadToken(t *testing.T) {
	h := testHandler()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/webhook?hub.verify_token=wrong&hub.challenge=12345", nil)

	h.Routes().ServeHTTP(rec, req)
	assert.Equal(t, 403, rec.Code)
}

func TestReceiveRejectsInvalidBody(t *testing.T) {
	h := testHandler()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/webhook", strings.NewReader("not json"))

	h.Routes().ServeHTTP(rec, req)
	assert.Equal(t, 400, rec.Code)
}

func TestReceiveRejectsMissingIdentifiers(t *testing.T) {
	h := testHandler()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(`{"text":"hola"}`))

	h.Routes().ServeHTTP(rec, req)
	assert.Equal(t, 400, rec.Code)
}

func TestHealthz(t *testing.T) {
	h := testHandler()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/healthz", nil)

	h.Routes().ServeHTTP(rec, req)
	assert.Equal(t, 200, rec.Code)
}
