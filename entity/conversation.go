package entity

import (
	"slices"
	"strings"
	"time"
)

const conversationSeparator = "_"

type ParticipantData struct {
	Name  string `json:"name" bson:"name" firestore:"name"`
	Email string `json:"email" bson:"email" firestore:"email"`
}

// Conversation mirrors the conversations/{id} document.
type Conversation struct {
	ID               string                     `json:"id" bson:"_id" firestore:"-"`
	Participants     []string                   `json:"participants" bson:"participants" firestore:"participants"`
	ParticipantsData map[string]ParticipantData `json:"participantsData" bson:"participantsData" firestore:"participantsData"`
	CreatedAt        time.Time                  `json:"createdAt" bson:"createdAt" firestore:"createdAt,serverTimestamp"`
	LastMessage      *string                    `json:"lastMessage" bson:"lastMessage" firestore:"lastMessage"`
	LastMessageTime  *time.Time                 `json:"lastMessageTime" bson:"lastMessageTime" firestore:"lastMessageTime"`
}

// ConversationID is the same for (a, b) and (b, a).
func ConversationID(a, b string) string {
	participants := []string{a, b}
	slices.Sort(participants)
	return strings.Join(participants, conversationSeparator)
}

// NewConversation prepares the document for a first chat between me and other.
// Names fall back to the email address.
func NewConversation(me *UserAuth, other *Profile) *Conversation {
	participants := []string{me.UID, other.UID}
	slices.Sort(participants)
	return &Conversation{
		ID:           ConversationID(me.UID, other.UID),
		Participants: participants,
		ParticipantsData: map[string]ParticipantData{
			me.UID:    {Name: me.Label(), Email: me.Email},
			other.UID: {Name: other.Label(), Email: other.Email},
		},
	}
}

func (c *Conversation) HasParticipant(uid string) bool {
	return slices.Contains(c.Participants, uid)
}
