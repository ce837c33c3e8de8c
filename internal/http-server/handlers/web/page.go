package web

import (
	"WeChat/internal/lib/sl"
	"WeChat/internal/service/auth"
	"WeChat/internal/view"
	"errors"
	"log/slog"
	"net/http"
)

const (
	loginRedirectAfter    = "1"
	registerRedirectAfter = "1.5"
)

func renderAuth(w http.ResponseWriter, logger *slog.Logger, handler Core, status int, page view.AuthPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := handler.RenderAuth(w, page); err != nil {
		logger.Error("render auth page", sl.Err(err))
	}
}

// failure is the banner for a rejected form.
func failure(logger *slog.Logger, err error) *view.Alert {
	var authErr *auth.Error
	if errors.As(err, &authErr) {
		logger.Debug("auth rejected", sl.Err(err))
		return &view.Alert{Type: view.AlertDanger, Message: authErr.Message}
	}
	logger.Error("auth failed", sl.Err(err))
	return &view.Alert{Type: view.AlertDanger, Message: err.Error()}
}
