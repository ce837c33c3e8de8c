package user

import (
	"WeChat/internal/lib/api/cont"
	"WeChat/internal/lib/api/response"
	"WeChat/internal/lib/sl"
	"WeChat/internal/service/chat"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// ListUsers returns every other profile ordered by name, narrowed by the
// optional q search term.
func ListUsers(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.user")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		user, err := cont.GetUser(r.Context())
		if err != nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Unauthorized: session not found"))
			return
		}

		profiles, err := handler.Roster(r.Context(), user.UID)
		if err != nil {
			logger.Error("failed to list users", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Error loading users: "+err.Error()))
			return
		}

		profiles = chat.FilterRoster(profiles, r.URL.Query().Get("q"))

		logger.Debug("users listed", slog.Int("count", len(profiles)))
		render.JSON(w, r, response.Ok(profiles))
	}
}
