package conversation

import (
	"WeChat/entity"
	"WeChat/internal/lib/api/cont"
	"WeChat/internal/lib/api/response"
	"WeChat/internal/lib/sl"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// ListMessages returns the messages of a conversation, oldest first.
func ListMessages(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		logger := log.With(
			sl.Module("http.handlers.conversation"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("conversation", id),
		)

		me, err := cont.GetUser(r.Context())
		if err != nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Unauthorized: session not found"))
			return
		}

		messages, err := handler.Messages(r.Context(), me, id)
		if err != nil {
			fail(w, r, logger, "Error loading messages", err)
			return
		}
		if messages == nil {
			messages = []entity.Message{}
		}

		render.JSON(w, r, response.Ok(messages))
	}
}

// SendMessage appends a message. When only the conversation preview update
// fails the message is still returned.
func SendMessage(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		logger := log.With(
			sl.Module("http.handlers.conversation"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("conversation", id),
		)

		me, err := cont.GetUser(r.Context())
		if err != nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Unauthorized: session not found"))
			return
		}

		var req entity.SendMessageRequest
		if err = render.Bind(r, &req); err != nil {
			logger.Debug("bind send request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Message text is required"))
			return
		}

		message, err := handler.SendMessage(r.Context(), me, id, req.Text)
		if err != nil && message == nil {
			fail(w, r, logger, "Failed to send message", err)
			return
		}
		if err != nil {
			logger.Warn("conversation preview not updated", sl.Err(err))
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.Ok(message))
	}
}
