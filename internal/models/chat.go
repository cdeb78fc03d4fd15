// internal/models/chat.go
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Conversation is a thread between exactly two users. The pair is stored
// ordered (ParticipantLow < ParticipantHigh) so {A,B} and {B,A} hit the same
// unique index.
type Conversation struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	ParticipantLow  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_pair" json:"-"`
	ParticipantHigh uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_pair" json:"-"`

	ParticipantNames datatypes.JSONType[map[string]string] `json:"participant_names"`

	// denormalised copy of the last message
	LastMessage     string     `gorm:"type:text" json:"last_message"`
	LastMessageTime *time.Time `gorm:"index" json:"last_message_time"`
	LastSenderID    *uuid.UUID `gorm:"type:uuid" json:"last_sender_id,omitempty"`
	UnreadCount     int        `gorm:"not null;default:0" json:"unread_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Messages []Message `gorm:"foreignKey:ConversationID" json:"messages"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}

// OrderedPair returns a and b sorted by their string form.
func OrderedPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() <= b.String() {
		return a, b
	}
	return b, a
}

func (c *Conversation) Participants() []uuid.UUID {
	return []uuid.UUID{c.ParticipantLow, c.ParticipantHigh}
}

func (c *Conversation) HasParticipant(id uuid.UUID) bool {
	return c.ParticipantLow == id || c.ParticipantHigh == id
}

// Other returns the participant that is not id.
func (c *Conversation) Other(id uuid.UUID) uuid.UUID {
	if c.ParticipantLow == id {
		return c.ParticipantHigh
	}
	return c.ParticipantLow
}

// MarshalJSON adds the participant ids, which are stored as the ordered pair.
func (c Conversation) MarshalJSON() ([]byte, error) {
	type conversation Conversation
	return json.Marshal(struct {
		conversation
		Participants []uuid.UUID `json:"participants"`
	}{conversation(c), c.Participants()})
}

// Message represents a message in a conversation
type Message struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID  `gorm:"type:uuid;index;not null" json:"conversation_id"`
	SenderID       uuid.UUID  `gorm:"type:uuid;index;not null" json:"sender_id"`
	Text           string     `gorm:"type:text;not null" json:"text"`
	IsRead         bool       `gorm:"default:false" json:"is_read"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	Timestamp      time.Time  `gorm:"index;not null" json:"timestamp"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	return
}
