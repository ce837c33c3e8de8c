package account

import (
	"WeChat/internal/lib/api/cont"
	"WeChat/internal/lib/api/cookie"
	"WeChat/internal/lib/api/response"
	"WeChat/internal/lib/sl"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// Logout marks the user offline and drops the session cookie. The session
// stays valid when the presence update fails.
func Logout(log *slog.Logger, handler Core, settings cookie.Settings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.account"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		user, err := cont.GetUser(r.Context())
		if err != nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Unauthorized: session not found"))
			return
		}

		if err = handler.Logout(r.Context(), user); err != nil {
			logger.Error("logout", slog.String("uid", user.UID), sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Logout failed: "+err.Error()))
			return
		}

		cookie.Clear(w, settings)
		render.JSON(w, r, response.Ok(nil))
	}
}
