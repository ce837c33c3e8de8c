package auth

import (
	"WeChat/entity"
	"WeChat/internal/lib/sl"
	"WeChat/internal/lib/validate"
	"context"
	"fmt"
	"log/slog"
)

type Provider interface {
	SignIn(ctx context.Context, email, password string) (*entity.Identity, error)
	SignUp(ctx context.Context, email, password string) (*entity.Identity, error)
	UpdateDisplayName(ctx context.Context, idToken, name string) error
}

type Repository interface {
	GetProfile(ctx context.Context, uid string) (*entity.Profile, error)
	CreateProfile(ctx context.Context, profile *entity.Profile) error
	SetPresence(ctx context.Context, uid string, online bool) error
}

// Result is a successful sign-in or sign-up.
type Result struct {
	User   *entity.UserAuth
	Token  string
	Notice string
}

type Service struct {
	provider   Provider
	repository Repository
	sessions   *Sessions
	log        *slog.Logger
}

func NewAuthService(logger *slog.Logger, sessions *Sessions) *Service {
	return &Service{
		sessions: sessions,
		log:      logger.With(sl.Module("auth-service")),
	}
}

func (s *Service) SetProvider(provider Provider) {
	s.provider = provider
}

func (s *Service) SetRepository(repository Repository) {
	s.repository = repository
}

func (s *Service) SessionTTL() int {
	return int(s.sessions.TTL().Seconds())
}

func (s *Service) AuthenticateByToken(token string) (*entity.UserAuth, error) {
	return s.sessions.Parse(token)
}

func (s *Service) Login(ctx context.Context, req entity.LoginRequest) (*Result, error) {
	req.Normalize()
	if req.Email == "" || req.Password == "" {
		return nil, formError(MsgFillAllFields)
	}

	log := s.log.With(slog.String("email", req.Email))

	identity, err := s.provider.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		log.Warn("login", sl.Err(err))
		return nil, userError(err)
	}

	user := &entity.UserAuth{
		UID:         identity.UID,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
	}
	if _, err = s.ensureProfile(ctx, user); err != nil {
		log.Error("login: profile", sl.Err(err))
		return nil, userError(err)
	}

	token, err := s.sessions.Issue(user)
	if err != nil {
		log.Error("login: session", sl.Err(err))
		return nil, userError(err)
	}

	name := user.DisplayName
	if name == "" {
		name = "User"
	}
	log.With(slog.String("uid", user.UID)).Info("user logged in")

	return &Result{
		User:   user,
		Token:  token,
		Notice: fmt.Sprintf("Welcome back, %s!", name),
	}, nil
}

// ValidateRegistration reports the first failing rule in the order: required
// fields, password length, password confirmation.
func ValidateRegistration(req *entity.RegisterRequest) error {
	req.Normalize()
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	tags := validate.FailedTags(err)
	switch {
	case tags == nil:
		return err
	case tags["required"]:
		return formError(MsgFillAllFields)
	case tags["utf16min"]:
		return formError(MsgPasswordTooShort)
	case tags["eqfield"]:
		return formError(MsgPasswordMismatch)
	}
	return formError(MsgFillAllFields)
}

func (s *Service) Register(ctx context.Context, req entity.RegisterRequest) (*Result, error) {
	if err := ValidateRegistration(&req); err != nil {
		return nil, err
	}

	log := s.log.With(slog.String("email", req.Email))

	identity, err := s.provider.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		log.Warn("registration", sl.Err(err))
		return nil, userError(err)
	}

	if err = s.provider.UpdateDisplayName(ctx, identity.IDToken, req.Name); err != nil {
		log.Error("registration: display name", sl.Err(err))
		return nil, userError(err)
	}

	user := &entity.UserAuth{
		UID:         identity.UID,
		Email:       req.Email,
		DisplayName: req.Name,
	}
	if err = s.repository.CreateProfile(ctx, entity.NewProfile(user.UID, req.Name, req.Email)); err != nil {
		log.Error("registration: profile", sl.Err(err))
		return nil, userError(err)
	}

	token, err := s.sessions.Issue(user)
	if err != nil {
		log.Error("registration: session", sl.Err(err))
		return nil, userError(err)
	}

	log.With(slog.String("uid", user.UID)).Info("user registered")

	return &Result{
		User:   user,
		Token:  token,
		Notice: "Account created successfully! Redirecting to chat...",
	}, nil
}

// Resume runs when a request arrives with a valid session: the profile is
// created if missing, otherwise marked online. Failures are only logged.
func (s *Service) Resume(ctx context.Context, user *entity.UserAuth) {
	created, err := s.ensureProfile(ctx, user)
	if err != nil {
		s.log.Error("resume: profile", slog.String("uid", user.UID), sl.Err(err))
		return
	}
	if created {
		return
	}
	if err = s.repository.SetPresence(ctx, user.UID, true); err != nil {
		s.log.Warn("resume: presence", slog.String("uid", user.UID), sl.Err(err))
	}
}

// Logout marks the user offline. The caller drops the session only when this
// succeeds.
func (s *Service) Logout(ctx context.Context, user *entity.UserAuth) error {
	if err := s.repository.SetPresence(ctx, user.UID, false); err != nil {
		s.log.Error("logout", slog.String("uid", user.UID), sl.Err(err))
		return err
	}
	s.log.With(slog.String("uid", user.UID)).Info("user logged out")
	return nil
}

func (s *Service) ensureProfile(ctx context.Context, user *entity.UserAuth) (bool, error) {
	profile, err := s.repository.GetProfile(ctx, user.UID)
	if err != nil {
		return false, err
	}
	if profile != nil {
		return false, nil
	}
	if err = s.repository.CreateProfile(ctx, entity.NewProfile(user.UID, user.DisplayName, user.Email)); err != nil {
		return false, err
	}
	return true, nil
}
