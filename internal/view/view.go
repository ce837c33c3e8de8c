// Package view renders the authentication and chat screens and the HTML
// fragments pushed to the chat screen over its websocket.
package view

import (
	"WeChat/entity"
	"WeChat/internal/service/chat"
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	AlertSuccess = "success"
	AlertDanger  = "danger"
)

type Alert struct {
	Type    string
	Message string
}

// AuthPage is the login / registration screen.
type AuthPage struct {
	Register   bool
	Alert      *Alert
	Email      string
	Name       string
	RedirectTo string
	// RedirectAfter is the delay in seconds before following RedirectTo.
	RedirectAfter string
}

// ChatPage is the chat screen of a signed-in user.
type ChatPage struct {
	Me       *entity.Profile
	Profiles []entity.Profile
	// Err is the roster load failure, if any.
	Err   error
	Alert *Alert
}

type rosterData struct {
	Profiles []entity.Profile
	Err      error
}

type messageRow struct {
	Text string
	Time string
	Sent bool
}

type messagesData struct {
	Loading  bool
	Messages []messageRow
	Err      error
}

type View struct {
	tmpl *template.Template
	now  func() time.Time
}

func New() (*View, error) {
	tmpl, err := template.New("").ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &View{
		tmpl: tmpl,
		now:  time.Now,
	}, nil
}

func (v *View) RenderAuth(w io.Writer, page AuthPage) error {
	return v.tmpl.ExecuteTemplate(w, "auth.html", page)
}

func (v *View) RenderChat(w io.Writer, page ChatPage) error {
	return v.tmpl.ExecuteTemplate(w, "chat.html", page)
}

// Roster renders the user list. A non-nil err renders the error state.
func (v *View) Roster(profiles []entity.Profile, err error) (string, error) {
	return v.fragment("roster", rosterData{Profiles: profiles, Err: err})
}

// Messages renders a conversation, each message marked sent or received
// relative to uid.
func (v *View) Messages(uid string, messages []entity.Message, err error) (string, error) {
	now := v.now()
	rows := make([]messageRow, 0, len(messages))
	for _, m := range messages {
		rows = append(rows, messageRow{
			Text: m.Text,
			Time: chat.FormatTime(m.Timestamp, now),
			Sent: m.SentBy(uid),
		})
	}
	return v.fragment("messages", messagesData{Messages: rows, Err: err})
}

// MessagesLoading is shown between selecting a user and the first snapshot.
func (v *View) MessagesLoading() (string, error) {
	return v.fragment("messages", messagesData{Loading: true})
}

// ChatHeader renders the name, presence and avatar of the selected user.
func (v *View) ChatHeader(peer *entity.Profile) (string, error) {
	return v.fragment("chat_header", peer)
}

func (v *View) fragment(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := v.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
