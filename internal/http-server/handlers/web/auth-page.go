package web

import (
	"WeChat/internal/lib/api/cont"
	"WeChat/internal/lib/sl"
	"WeChat/internal/view"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// AuthPage shows the login form, or the registration form with
// ?mode=register. A signed-in user goes straight to the chat.
func AuthPage(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.web"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if user, err := cont.GetUser(r.Context()); err == nil {
			handler.Resume(r.Context(), user)
			http.Redirect(w, r, "/chat", http.StatusFound)
			return
		}

		renderAuth(w, logger, handler, http.StatusOK, view.AuthPage{
			Register: r.URL.Query().Get("mode") == "register",
		})
	}
}
