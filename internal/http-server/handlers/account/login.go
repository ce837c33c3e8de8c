package account

import (
	"WeChat/entity"
	"WeChat/internal/lib/api/cookie"
	"WeChat/internal/lib/api/response"
	"WeChat/internal/lib/sl"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

func Login(log *slog.Logger, handler Core, settings cookie.Settings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.account"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req entity.LoginRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Debug("bind login request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}
		logger = logger.With(slog.String("email", req.Email))

		result, err := handler.Login(r.Context(), req)
		if err != nil {
			authFailed(w, r, logger, err)
			return
		}

		logger.Debug("signed in", slog.String("uid", result.User.UID))
		signedIn(w, r, logger, handler, settings, result)
	}
}
