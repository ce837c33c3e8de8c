package conversation

import (
	"WeChat/internal/lib/api/response"
	"WeChat/internal/service/chat"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
)

// fail answers err with the status that matches it.
func fail(w http.ResponseWriter, r *http.Request, logger *slog.Logger, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, chat.ErrUserNotFound), errors.Is(err, chat.ErrConversationNotFound):
		status = http.StatusNotFound
	case errors.Is(err, chat.ErrNotParticipant):
		status = http.StatusForbidden
	case errors.Is(err, chat.ErrSelfConversation), errors.Is(err, chat.ErrEmptyMessage):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		logger.Error(message, slog.String("error", err.Error()))
	} else {
		logger.Debug(message, slog.String("error", err.Error()))
	}

	render.Status(r, status)
	render.JSON(w, r, response.Error(message+": "+err.Error()))
}
