package authenticate

import (
	"WeChat/entity"
	"WeChat/internal/lib/api/cont"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeAuth struct{}

func (fakeAuth) AuthenticateByToken(token string) (*entity.UserAuth, error) {
	if token == "good" {
		return &entity.UserAuth{UID: "u1"}, nil
	}
	return nil, errors.New("bad token")
}

func TestNew(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	var got *entity.UserAuth
	h := New(log, fakeAuth{}, "sess")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = cont.GetUser(r.Context())
	}))

	tests := []struct {
		name    string
		prepare func(r *http.Request)
		wantUID string
	}{
		{name: "none", prepare: func(r *http.Request) {}},
		{name: "bearer", prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") }, wantUID: "u1"},
		{name: "cookie", prepare: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "sess", Value: "good"}) }, wantUID: "u1"},
		{name: "invalid", prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }},
		{name: "other scheme", prepare: func(r *http.Request) { r.Header.Set("Authorization", "Basic good") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.prepare(req)
			h.ServeHTTP(httptest.NewRecorder(), req)

			uid := ""
			if got != nil {
				uid = got.UID
			}
			if uid != tt.wantUID {
				t.Errorf("user = %q, want %q", uid, tt.wantUID)
			}
		})
	}
}

func TestRequired(t *testing.T) {
	h := Required(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(cont.PutUser(req.Context(), &entity.UserAuth{UID: "u1"}))
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("signed in: status %d", rec.Code)
	}
}
