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

func Register(log *slog.Logger, handler Core, settings cookie.Settings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.account"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req entity.RegisterRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Debug("bind register request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid request body"))
			return
		}
		logger = logger.With(slog.String("email", req.Email))

		result, err := handler.Register(r.Context(), req)
		if err != nil {
			authFailed(w, r, logger, err)
			return
		}

		signedIn(w, r, logger, handler, settings, result)
	}
}
