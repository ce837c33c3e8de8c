package web

import (
	"WeChat/internal/lib/api/cont"
	"WeChat/internal/lib/sl"
	"WeChat/internal/view"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// ChatPage renders the chat screen with the roster as it is now; the
// websocket keeps it current afterwards.
func ChatPage(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.web"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		user, err := cont.GetUser(r.Context())
		if err != nil {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}

		profile, err := handler.Enter(r.Context(), user)
		if err != nil {
			logger.Error("enter chat", slog.String("uid", user.UID), sl.Err(err))
			renderAuth(w, logger, handler, http.StatusInternalServerError, view.AuthPage{
				Alert: &view.Alert{Type: view.AlertDanger, Message: "Failed to load your profile: " + err.Error()},
			})
			return
		}

		profiles, err := handler.Roster(r.Context(), user.UID)
		if err != nil {
			logger.Warn("load roster", sl.Err(err))
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err = handler.RenderChat(w, view.ChatPage{
			Me:       profile,
			Profiles: profiles,
			Err:      err,
		})
		if err != nil {
			logger.Error("render chat page", sl.Err(err))
		}
	}
}
