package web

import (
	"WeChat/entity"
	"WeChat/internal/lib/api/cookie"
	"WeChat/internal/lib/sl"
	"WeChat/internal/view"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

func Login(log *slog.Logger, handler Core, settings cookie.Settings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.web"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		req := entity.LoginRequest{
			Email:    r.PostFormValue("email"),
			Password: r.PostFormValue("password"),
		}
		req.Normalize()

		result, err := handler.Login(r.Context(), req)
		if err != nil {
			renderAuth(w, logger, handler, http.StatusOK, view.AuthPage{
				Alert: failure(logger, err),
				Email: req.Email,
			})
			return
		}

		cookie.Set(w, settings, result.Token)
		renderAuth(w, logger, handler, http.StatusOK, view.AuthPage{
			Alert:         &view.Alert{Type: view.AlertSuccess, Message: result.Notice},
			Email:         req.Email,
			RedirectTo:    "/chat",
			RedirectAfter: loginRedirectAfter,
		})
	}
}
