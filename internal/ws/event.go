package ws

import (
	"WeChat/entity"
	"encoding/json"
)

const (
	EventRoster       = "roster"
	EventConversation = "conversation"
	EventMessages     = "messages"
	EventSent         = "sent"
	EventError        = "error"

	frameOpen  = "open"
	frameClose = "close"
	frameSend  = "send"
)

// Event is a frame sent to the chat screen. HTML is the rendered fragment for
// Data, ready to be swapped into the page.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	HTML string      `json:"html,omitempty"`
}

// clientEvent is a frame sent by the chat screen.
type clientEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type openData struct {
	UserID string `json:"user_id"`
}

type sendData struct {
	Text string `json:"text"`
}

type errorData struct {
	Message string `json:"message"`
}

type conversationData struct {
	Conversation *entity.Conversation `json:"conversation"`
	Peer         *entity.Profile      `json:"peer"`
}
