package entity

import "time"

// Message mirrors conversations/{id}/messages/{auto}. Timestamp is assigned by
// the store; CreatedAt is the sender's clock as an ISO-8601 string.
type Message struct {
	ID             string    `json:"id" bson:"_id" firestore:"-"`
	ConversationID string    `json:"conversationId" bson:"conversationId" firestore:"-"`
	Text           string    `json:"text" bson:"text" firestore:"text"`
	SenderID       string    `json:"senderId" bson:"senderId" firestore:"senderId"`
	SenderName     string    `json:"senderName" bson:"senderName" firestore:"senderName"`
	Timestamp      time.Time `json:"timestamp" bson:"timestamp" firestore:"timestamp,serverTimestamp"`
	CreatedAt      string    `json:"createdAt" bson:"createdAt" firestore:"createdAt"`
}

func NewMessage(conversationID string, sender *UserAuth, text string, now time.Time) *Message {
	return &Message{
		ConversationID: conversationID,
		Text:           text,
		SenderID:       sender.UID,
		SenderName:     sender.Label(),
		CreatedAt:      now.UTC().Format("2006-01-02T15:04:05.000Z"),
	}
}

func (m *Message) SentBy(uid string) bool {
	return m.SenderID == uid
}
