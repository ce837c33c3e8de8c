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

func Register(log *slog.Logger, handler Core, settings cookie.Settings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.web"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		req := entity.RegisterRequest{
			Name:            r.PostFormValue("name"),
			Email:           r.PostFormValue("email"),
			Password:        r.PostFormValue("password"),
			ConfirmPassword: r.PostFormValue("confirmPassword"),
		}
		req.Normalize()

		result, err := handler.Register(r.Context(), req)
		if err != nil {
			renderAuth(w, logger, handler, http.StatusOK, view.AuthPage{
				Register: true,
				Alert:    failure(logger, err),
				Name:     req.Name,
				Email:    req.Email,
			})
			return
		}

		cookie.Set(w, settings, result.Token)
		renderAuth(w, logger, handler, http.StatusOK, view.AuthPage{
			Register:      true,
			Alert:         &view.Alert{Type: view.AlertSuccess, Message: result.Notice},
			RedirectTo:    "/chat",
			RedirectAfter: registerRedirectAfter,
		})
	}
}
