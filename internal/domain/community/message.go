package community

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Message struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Content    string    `gorm:"not null;column:content" json:"content"`
	SenderID   uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_pair,priority:1;column:sender_id" json:"senderId"`
	ReceiverID uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_pair,priority:2;column:receiver_id" json:"receiverId"`
	CreatedAt  time.Time `gorm:"not null;index" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"not null" json:"updatedAt"`
}

func (Message) TableName() string { return "messages" }

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
