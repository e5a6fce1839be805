package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"finbot/internal/config"
	"finbot/internal/domain/models"
	"finbot/internal/httputil"
	"finbot/internal/service/agent"
	"finbot/internal/service/agent/tools"
)

// AgentService is the slice of the orchestrator the chat handler uses.
type AgentService interface {
	Run(ctx context.Context, userID, sessionID, message string) (*agent.Result, error)
	History(ctx context.Context, userID, sessionID string) ([]models.Turn, error)
}

// ChatHandler serves the conversational endpoints.
type ChatHandler struct {
	agent  AgentService
	broker *agent.ProgressBroker
	logger *slog.Logger
}

func NewChatHandler(agentSvc AgentService, broker *agent.ProgressBroker, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{agent: agentSvc, broker: broker, logger: logger}
}

type postMessageRequest struct {
	Message string `json:"message"`
}

func (r postMessageRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Message,
			validation.Required,
			validation.Length(1, config.MaxMessageLength),
		),
	)
}

// PostMessage runs one agent turn for the session.
// POST /api/sessions/{id}/messages
// With Accept: text/event-stream the response is an SSE stream of
// progress events followed by the answer; otherwise a single JSON body.
func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)
	sessionID := r.PathValue("id")

	var req postMessageRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respondWithError(w, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		h.postMessageSSE(w, r, userID, sessionID, req.Message)
		return
	}

	result, err := h.agent.Run(r.Context(), userID, sessionID, req.Message)
	if err != nil {
		h.logger.Error("agent turn failed", "session_id", sessionID, "error", err)
		respondWithError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, result)
}

// postMessageSSE streams tool progress while the agent works. Events:
// "progress" carries a status line, "answer" the final reply, "error" a
// failure message. The stream always ends after answer or error.
func (h *ChatHandler) postMessageSSE(w http.ResponseWriter, r *http.Request, userID, sessionID, message string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Progress callbacks arrive from concurrent tool executions; every
	// write to the stream goes through one mutex so frames never interleave.
	var streamMu sync.Mutex
	ctx := tools.WithProgress(r.Context(), func(status string) {
		streamMu.Lock()
		defer streamMu.Unlock()
		writeSSE(w, flusher, "progress", map[string]string{"status": status})
	})

	result, err := h.agent.Run(ctx, userID, sessionID, message)
	streamMu.Lock()
	defer streamMu.Unlock()
	if err != nil {
		h.logger.Error("agent turn failed", "session_id", sessionID, "error", err)
		writeSSE(w, flusher, "error", map[string]string{"detail": "the assistant failed to answer; please retry"})
		return
	}
	writeSSE(w, flusher, "answer", result)
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	flusher.Flush()
}

// StreamProgress streams stage labels for any agent turn running in the
// session, as SSE "progress" events with periodic keepalive comments.
// GET /api/sessions/{id}/progress
func (h *ChatHandler) StreamProgress(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)
	sessionID := r.PathValue("id")

	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	labels, cancel := h.broker.Subscribe(userID, sessionID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepalive := time.NewTicker(15 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			// SSE comment lines keep proxies from closing the stream.
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case label := <-labels:
			writeSSE(w, flusher, "progress", map[string]string{"status": label})
		}
	}
}

// ListMessages returns the session's visible conversation.
// GET /api/sessions/{id}/messages
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)
	sessionID := r.PathValue("id")

	turns, err := h.agent.History(r.Context(), userID, sessionID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"messages": turns})
}
