package web

import (
	"WeChat/internal/lib/api/cont"
	"WeChat/internal/lib/api/cookie"
	"WeChat/internal/lib/sl"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// Logout marks the user offline, then drops the session cookie. When the
// presence update fails the user stays signed in on the chat screen.
func Logout(log *slog.Logger, handler Core, settings cookie.Settings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.web"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		user, err := cont.GetUser(r.Context())
		if err != nil {
			cookie.Clear(w, settings)
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		if err = handler.Logout(r.Context(), user); err != nil {
			logger.Error("logout", slog.String("uid", user.UID), sl.Err(err))
			http.Redirect(w, r, "/chat", http.StatusSeeOther)
			return
		}

		cookie.Clear(w, settings)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}
