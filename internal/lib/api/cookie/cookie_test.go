package cookie

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSetAndRead(t *testing.T) {
	s := Settings{Name: "sess", TTL: time.Hour, Secure: true}

	rec := httptest.NewRecorder()
	Set(rec, s, "abc")

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != "sess" || c.Value != "abc" || !c.HttpOnly || !c.Secure || c.MaxAge != 3600 {
		t.Errorf("unexpected cookie %+v", c)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	if got := Token(req, "sess"); got != "abc" {
		t.Errorf("Token = %q", got)
	}
	if got := Token(req, "other"); got != "" {
		t.Errorf("Token(other) = %q", got)
	}
}

func TestClear(t *testing.T) {
	rec := httptest.NewRecorder()
	Clear(rec, Settings{Name: "sess"})

	c := rec.Result().Cookies()[0]
	if c.Value != "" || c.MaxAge >= 0 {
		t.Errorf("cookie not cleared: %+v", c)
	}
}
