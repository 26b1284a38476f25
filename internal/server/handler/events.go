package handler

import (
	"log/slog"
	"net/http"

	"github.com/doubletap-dave/flashloan-engine/internal/domain"
)

// EventSource provides read access to the recent event log.
type EventSource interface {
	Recent(n int) []domain.Event
}

// EventsHandler serves the operation event log.
type EventsHandler struct {
	events EventSource
	logger *slog.Logger
}

// NewEventsHandler creates an EventsHandler with the given source and logger.
func NewEventsHandler(events EventSource, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{events: events, logger: logger}
}

// Recent returns the most recent operation events, newest first.
// GET /api/events?limit=50
func (h *EventsHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 50, 500)
	list := h.events.Recent(limit)
	if list == nil {
		list = []domain.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": list})
}
