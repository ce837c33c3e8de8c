package firebase

import (
	"WeChat/entity"
	"WeChat/internal/config"
	"WeChat/internal/lib/sl"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

// emulatorApiKey is accepted by the auth emulator in place of a project key.
const emulatorApiKey = "emulator-api-key"

var providerCodes = map[string]string{
	"EMAIL_EXISTS":                entity.AuthEmailInUse,
	"INVALID_EMAIL":               entity.AuthInvalidEmail,
	"WEAK_PASSWORD":               entity.AuthWeakPassword,
	"EMAIL_NOT_FOUND":             entity.AuthUserNotFound,
	"INVALID_PASSWORD":            entity.AuthWrongPassword,
	"INVALID_LOGIN_CREDENTIALS":   entity.AuthInvalidCredential,
	"TOO_MANY_ATTEMPTS_TRY_LATER": entity.AuthTooManyRequests,
}

// Identity signs users in and up against the Firebase identity toolkit.
type Identity struct {
	svc *identitytoolkit.Service
	log *slog.Logger
}

func NewIdentity(ctx context.Context, conf *config.Config, logger *slog.Logger) (*Identity, error) {
	var opts []option.ClientOption
	if host := conf.Firebase.AuthEmulatorHost; host != "" {
		key := conf.Firebase.ApiKey
		if key == "" {
			key = emulatorApiKey
		}
		opts = append(opts,
			option.WithEndpoint(fmt.Sprintf("http://%s/www.googleapis.com/identitytoolkit/v3/relyingparty/", host)),
			option.WithAPIKey(key),
		)
	} else {
		opts = append(opts, option.WithAPIKey(conf.Firebase.ApiKey))
	}

	svc, err := identitytoolkit.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("identity toolkit client: %w", err)
	}
	return &Identity{
		svc: svc,
		log: logger.With(sl.Module("firebase.identity")),
	}, nil
}

func (i *Identity) SignIn(ctx context.Context, email, password string) (*entity.Identity, error) {
	resp, err := i.svc.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, ProviderError(err)
	}
	return &entity.Identity{
		UID:          resp.LocalId,
		Email:        resp.Email,
		DisplayName:  resp.DisplayName,
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
	}, nil
}

func (i *Identity) SignUp(ctx context.Context, email, password string) (*entity.Identity, error) {
	resp, err := i.svc.Relyingparty.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:    email,
		Password: password,
	}).Context(ctx).Do()
	if err != nil {
		return nil, ProviderError(err)
	}
	return &entity.Identity{
		UID:          resp.LocalId,
		Email:        resp.Email,
		DisplayName:  resp.DisplayName,
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
	}, nil
}

func (i *Identity) UpdateDisplayName(ctx context.Context, idToken, name string) error {
	_, err := i.svc.Relyingparty.SetAccountInfo(&identitytoolkit.IdentitytoolkitRelyingpartySetAccountInfoRequest{
		IdToken:     idToken,
		DisplayName: name,
	}).Context(ctx).Do()
	if err != nil {
		return ProviderError(err)
	}
	return nil
}

// ProviderError normalises an identity toolkit failure into an AuthError.
// Reasons look like "WEAK_PASSWORD : Password should be at least 6 characters".
func ProviderError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		reason, _, _ := strings.Cut(apiErr.Message, ":")
		reason = strings.TrimSpace(reason)
		code, ok := providerCodes[reason]
		if !ok {
			code = "auth/" + strings.ToLower(strings.ReplaceAll(reason, "_", "-"))
		}
		return &entity.AuthError{Code: code, Message: apiErr.Message, Err: err}
	}

	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) {
		return &entity.AuthError{Code: entity.AuthNetworkFailed, Message: err.Error(), Err: err}
	}

	return &entity.AuthError{Code: entity.AuthInternal, Message: err.Error(), Err: err}
}
