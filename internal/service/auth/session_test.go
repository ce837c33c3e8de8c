package auth

import (
	"WeChat/entity"
	"errors"
	"testing"
	"time"
)

func TestSessionsRoundTrip(t *testing.T) {
	s := NewSessions("secret", time.Hour)
	token, err := s.Issue(&entity.UserAuth{UID: "u1", Email: "u1@example.com", DisplayName: "U One"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	user, err := s.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if user.UID != "u1" || user.Email != "u1@example.com" || user.DisplayName != "U One" || user.Token != token {
		t.Fatalf("user = %+v", user)
	}
}

func TestSessionsRejectInvalid(t *testing.T) {
	s := NewSessions("secret", time.Hour)
	token, _ := s.Issue(&entity.UserAuth{UID: "u1"})

	other := NewSessions("other-secret", time.Hour)
	if _, err := other.Parse(token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("foreign signature: err = %v", err)
	}

	expired := NewSessions("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := expired.Parse(token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("expired: err = %v", err)
	}

	if _, err := s.Parse("not-a-token"); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("garbage: err = %v", err)
	}

	noSubject, _ := s.Issue(&entity.UserAuth{})
	if _, err := s.Parse(noSubject); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("empty subject: err = %v", err)
	}
}
