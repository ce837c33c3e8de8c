package account

import (
	"WeChat/entity"
	"WeChat/internal/lib/api/cont"
	"WeChat/internal/lib/api/cookie"
	"WeChat/internal/lib/api/response"
	"WeChat/internal/lib/sl"
	"WeChat/internal/service/auth"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// Session is the body of a successful sign-in, sign-up or session check.
type Session struct {
	Token     string           `json:"token,omitempty"`
	ExpiresIn int              `json:"expires_in,omitempty"`
	Notice    string           `json:"notice,omitempty"`
	User      *entity.UserAuth `json:"user"`
	Profile   *entity.Profile  `json:"profile"`
}

// GetSession returns the user of the current session.
func GetSession(log *slog.Logger, handler Core) http.HandlerFunc {
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

		profile, err := handler.Enter(r.Context(), user)
		if err != nil {
			logger.Error("load profile", slog.String("uid", user.UID), sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to load profile"))
			return
		}

		render.JSON(w, r, response.Ok(Session{User: user, Profile: profile}))
	}
}

// signedIn sets the session cookie and answers with the session body.
func signedIn(w http.ResponseWriter, r *http.Request, logger *slog.Logger, handler Core, settings cookie.Settings, result *auth.Result) {
	profile, err := handler.Enter(r.Context(), result.User)
	if err != nil {
		logger.Warn("load profile", slog.String("uid", result.User.UID), sl.Err(err))
	}

	cookie.Set(w, settings, result.Token)
	render.JSON(w, r, response.Ok(Session{
		Token:     result.Token,
		ExpiresIn: int(settings.TTL.Seconds()),
		Notice:    result.Notice,
		User:      result.User,
		Profile:   profile,
	}))
}

// authFailed answers a rejected sign-in or sign-up with its user-facing text.
func authFailed(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var authErr *auth.Error
	if errors.As(err, &authErr) {
		logger.Debug("auth rejected", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(authErr.Message))
		return
	}
	logger.Error("auth failed", sl.Err(err))
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, response.Error(err.Error()))
}
