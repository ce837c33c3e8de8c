package conversation

import (
	"WeChat/entity"
	"WeChat/internal/lib/api/cont"
	"WeChat/internal/lib/api/response"
	"WeChat/internal/lib/sl"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Opened struct {
	Conversation *entity.Conversation `json:"conversation"`
	Peer         *entity.Profile      `json:"peer"`
}

// Open returns the conversation with user_id, creating it on first use.
func Open(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.conversation"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		me, err := cont.GetUser(r.Context())
		if err != nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Unauthorized: session not found"))
			return
		}

		var req entity.OpenConversationRequest
		if err = render.Bind(r, &req); err != nil {
			logger.Debug("bind open request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("user_id is required"))
			return
		}

		conversation, peer, err := handler.OpenConversation(r.Context(), me, req.UserID)
		if err != nil {
			fail(w, r, logger, "Failed to open chat", err)
			return
		}

		render.JSON(w, r, response.Ok(Opened{Conversation: conversation, Peer: peer}))
	}
}
