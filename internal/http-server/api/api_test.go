package api

import (
	"WeChat/entity"
	"WeChat/impl/core"
	"WeChat/internal/config"
	"WeChat/internal/database/memory"
	"WeChat/internal/service/auth"
	"WeChat/internal/service/chat"
	"WeChat/internal/view"
	"WeChat/internal/ws"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeAccount struct {
	uid      string
	password string
	name     string
}

// fakeProvider is an in-memory identity provider.
type fakeProvider struct {
	mu       sync.Mutex
	accounts map[string]*fakeAccount
	byToken  map[string]*fakeAccount
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		accounts: make(map[string]*fakeAccount),
		byToken:  make(map[string]*fakeAccount),
	}
}

func (f *fakeProvider) SignIn(_ context.Context, email, password string) (*entity.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[email]
	if !ok {
		return nil, &entity.AuthError{Code: entity.AuthUserNotFound, Message: "EMAIL_NOT_FOUND"}
	}
	if a.password != password {
		return nil, &entity.AuthError{Code: entity.AuthWrongPassword, Message: "INVALID_PASSWORD"}
	}
	return &entity.Identity{UID: a.uid, Email: email, DisplayName: a.name, IDToken: "id-" + a.uid}, nil
}

func (f *fakeProvider) SignUp(_ context.Context, email, password string) (*entity.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[email]; ok {
		return nil, &entity.AuthError{Code: entity.AuthEmailInUse, Message: "EMAIL_EXISTS"}
	}
	a := &fakeAccount{uid: "uid-" + strings.Split(email, "@")[0], password: password}
	f.accounts[email] = a
	f.byToken["id-"+a.uid] = a
	return &entity.Identity{UID: a.uid, Email: email, IDToken: "id-" + a.uid}, nil
}

func (f *fakeProvider) UpdateDisplayName(_ context.Context, idToken, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.byToken[idToken]; ok {
		a.name = name
	}
	return nil
}

type testServer struct {
	*httptest.Server
	store *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	conf := &config.Config{}
	conf.Session.CookieName = "wechat_session"
	conf.Session.TTL = time.Hour

	store := memory.New()
	authService := auth.NewAuthService(log, auth.NewSessions("test-secret", conf.Session.TTL))
	authService.SetProvider(newFakeProvider())
	authService.SetRepository(store)
	chatService := chat.NewChatService(log, store)

	v, err := view.New()
	if err != nil {
		t.Fatalf("view.New: %v", err)
	}

	handler := core.New(log)
	handler.SetAuthService(authService)
	handler.SetChatService(chatService)
	handler.SetView(v)

	ctx, cancel := context.WithCancel(context.Background())
	hub := ws.NewHub(log, chatService, v)
	go hub.Run(ctx)

	server := httptest.NewServer(NewRouter(conf, log, handler, ws.ServeWs(hub, handler, log)))
	t.Cleanup(func() {
		server.Close()
		cancel()
	})
	return &testServer{Server: server, store: store}
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = strings.NewReader(string(raw))
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err = json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("%s %s: decode: %v", method, path, err)
	}
	return resp.StatusCode, env
}

type session struct {
	Token   string           `json:"token"`
	Notice  string           `json:"notice"`
	User    *entity.UserAuth `json:"user"`
	Profile *entity.Profile  `json:"profile"`
}

func (s *testServer) register(t *testing.T, name, email string) session {
	t.Helper()
	status, env := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "secret1", "confirmPassword": "secret1",
	})
	if status != http.StatusOK || !env.Success {
		t.Fatalf("register %s: %d %s", email, status, env.Message)
	}
	var sess session
	if err := json.Unmarshal(env.Data, &sess); err != nil {
		t.Fatal(err)
	}
	return sess
}

func TestRegisterAndSession(t *testing.T) {
	s := newTestServer(t)

	sess := s.register(t, " Ann Lee ", "ann@example.com")
	if sess.Token == "" || sess.Notice != "Account created successfully! Redirecting to chat..." {
		t.Fatalf("unexpected session %+v", sess)
	}
	if sess.Profile == nil || sess.Profile.Name != "Ann Lee" || !sess.Profile.Online {
		t.Fatalf("unexpected profile %+v", sess.Profile)
	}

	status, env := s.do(t, http.MethodGet, "/api/v1/auth/session", sess.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("session: %d %s", status, env.Message)
	}

	status, env = s.do(t, http.MethodGet, "/api/v1/auth/session", "", nil)
	if status != http.StatusUnauthorized || env.Success {
		t.Fatalf("anonymous session: %d", status)
	}
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body map[string]string
		want string
	}{
		{"missing", map[string]string{"email": "a@example.com", "password": "secret1", "confirmPassword": "secret1"}, auth.MsgFillAllFields},
		{"short", map[string]string{"name": "A", "email": "a@example.com", "password": "123", "confirmPassword": "123"}, auth.MsgPasswordTooShort},
		{"mismatch", map[string]string{"name": "A", "email": "a@example.com", "password": "secret1", "confirmPassword": "secret2"}, auth.MsgPasswordMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := s.do(t, http.MethodPost, "/api/v1/auth/register", "", tt.body)
			if status != http.StatusBadRequest || env.Message != tt.want {
				t.Errorf("got %d %q, want 400 %q", status, env.Message, tt.want)
			}
		})
	}
}

func TestLoginErrors(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "Ann", "ann@example.com")

	status, env := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "ann@example.com", "password": "nope"})
	if status != http.StatusBadRequest || env.Message != "Incorrect password" {
		t.Errorf("wrong password: %d %q", status, env.Message)
	}

	status, env = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "bob@example.com", "password": "secret1"})
	if status != http.StatusBadRequest || env.Message != "No account found with this email" {
		t.Errorf("unknown user: %d %q", status, env.Message)
	}

	status, env = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": " ann@example.com ", "password": "secret1"})
	if status != http.StatusOK {
		t.Fatalf("login: %d %q", status, env.Message)
	}
	var sess session
	if err := json.Unmarshal(env.Data, &sess); err != nil {
		t.Fatal(err)
	}
	if sess.Notice != "Welcome back, Ann!" {
		t.Errorf("notice = %q", sess.Notice)
	}
}

func TestConversationFlow(t *testing.T) {
	s := newTestServer(t)
	ann := s.register(t, "Ann", "ann@example.com")
	bob := s.register(t, "Bob", "bob@example.com")
	carl := s.register(t, "Carl", "carl@example.com")

	status, env := s.do(t, http.MethodGet, "/api/v1/users?q=BO", ann.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("users: %d %s", status, env.Message)
	}
	var users []entity.Profile
	if err := json.Unmarshal(env.Data, &users); err != nil {
		t.Fatal(err)
	}
	if len(users) != 1 || users[0].UID != bob.User.UID {
		t.Fatalf("users = %+v", users)
	}

	status, env = s.do(t, http.MethodPost, "/api/v1/conversations", ann.Token, map[string]string{"user_id": bob.User.UID})
	if status != http.StatusOK {
		t.Fatalf("open: %d %s", status, env.Message)
	}
	var opened struct {
		Conversation entity.Conversation `json:"conversation"`
	}
	if err := json.Unmarshal(env.Data, &opened); err != nil {
		t.Fatal(err)
	}
	id := opened.Conversation.ID
	if id != entity.ConversationID(ann.User.UID, bob.User.UID) {
		t.Fatalf("conversation id = %q", id)
	}

	path := "/api/v1/conversations/" + url.PathEscape(id) + "/messages"
	status, env = s.do(t, http.MethodPost, path, ann.Token, map[string]string{"text": "  hello  "})
	if status != http.StatusCreated {
		t.Fatalf("send: %d %s", status, env.Message)
	}

	status, env = s.do(t, http.MethodPost, path, ann.Token, map[string]string{"text": "   "})
	if status != http.StatusBadRequest {
		t.Errorf("empty send: %d", status)
	}

	status, env = s.do(t, http.MethodGet, path, bob.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("list: %d %s", status, env.Message)
	}
	var messages []entity.Message
	if err := json.Unmarshal(env.Data, &messages); err != nil {
		t.Fatal(err)
	}
	if len(messages) != 1 || messages[0].Text != "hello" || messages[0].SenderName != "Ann" {
		t.Fatalf("messages = %+v", messages)
	}

	status, _ = s.do(t, http.MethodGet, path, carl.Token, nil)
	if status != http.StatusForbidden {
		t.Errorf("outsider read: %d", status)
	}
	status, _ = s.do(t, http.MethodPost, path, carl.Token, map[string]string{"text": "hi"})
	if status != http.StatusForbidden {
		t.Errorf("outsider write: %d", status)
	}

	status, _ = s.do(t, http.MethodPost, "/api/v1/conversations", ann.Token, map[string]string{"user_id": ann.User.UID})
	if status != http.StatusBadRequest {
		t.Errorf("self conversation: %d", status)
	}
	status, _ = s.do(t, http.MethodPost, "/api/v1/conversations", ann.Token, map[string]string{"user_id": "ghost"})
	if status != http.StatusNotFound {
		t.Errorf("unknown user: %d", status)
	}
}

func TestLogoutMarksOffline(t *testing.T) {
	s := newTestServer(t)
	ann := s.register(t, "Ann", "ann@example.com")

	status, env := s.do(t, http.MethodPost, "/api/v1/auth/logout", ann.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("logout: %d %s", status, env.Message)
	}
	p, err := s.store.GetProfile(context.Background(), ann.User.UID)
	if err != nil || p == nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if p.Online {
		t.Error("profile still online after logout")
	}
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodGet, "/api/v1/nope", "", nil)
	if status != http.StatusNotFound || env.Message != "Requested resource not found" {
		t.Errorf("got %d %q", status, env.Message)
	}
}

func noRedirect(*http.Request, []*http.Request) error {
	return http.ErrUseLastResponse
}

func TestWebScreens(t *testing.T) {
	s := newTestServer(t)
	client := &http.Client{CheckRedirect: noRedirect}

	resp, err := client.Get(s.URL + "/chat")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/" {
		t.Fatalf("anonymous chat: %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, err = client.PostForm(s.URL+"/register", url.Values{
		"name": {"Ann"}, "email": {"ann@example.com"}, "password": {"secret1"}, "confirmPassword": {"secret2"},
	})
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), auth.MsgPasswordMismatch) || len(resp.Cookies()) != 0 {
		t.Fatalf("mismatch registration should show banner and set no cookie")
	}

	resp, err = client.PostForm(s.URL+"/register", url.Values{
		"name": {"Ann"}, "email": {"ann@example.com"}, "password": {"secret1"}, "confirmPassword": {"secret1"},
	})
	if err != nil {
		t.Fatal(err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), `content="1.5;url=/chat"`) {
		t.Fatalf("registration should redirect to chat:\n%s", body)
	}
	cookies := resp.Cookies()
	if len(cookies) != 1 || cookies[0].Name != "wechat_session" {
		t.Fatalf("session cookie not set: %+v", cookies)
	}
	sessionCookie := cookies[0]

	req, _ := http.NewRequest(http.MethodGet, s.URL+"/", nil)
	req.AddCookie(sessionCookie)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/chat" {
		t.Fatalf("signed-in root: %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}

	req, _ = http.NewRequest(http.MethodGet, s.URL+"/chat", nil)
	req.AddCookie(sessionCookie)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "No other users yet") {
		t.Fatalf("chat page: %d\n%s", resp.StatusCode, body)
	}

	req, _ = http.NewRequest(http.MethodPost, s.URL+"/logout", nil)
	req.AddCookie(sessionCookie)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/" {
		t.Fatalf("logout: %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}
	cleared := resp.Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge >= 0 {
		t.Errorf("cookie not cleared: %+v", cleared)
	}
}

func TestWebLoginFailureKeepsEmail(t *testing.T) {
	s := newTestServer(t)

	resp, err := http.PostForm(s.URL+"/login", url.Values{"email": {" ann@example.com "}, "password": {"x"}})
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	html := string(body)
	if !strings.Contains(html, "No account found with this email") {
		t.Errorf("missing banner:\n%s", html)
	}
	if !strings.Contains(html, `value="ann@example.com"`) {
		t.Errorf("email not kept:\n%s", html)
	}
}
