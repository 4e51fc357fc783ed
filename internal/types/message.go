package types

import (
	"time"

	"github.com/google/uuid"
)

// Message is append-only: rows are created by the chat surface (user
// questions) and the responder (answers) and never mutated afterwards.
type Message struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DocumentID    uuid.UUID `gorm:"type:uuid;not null;index" json:"document_id"`
	Document      *Document `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"document,omitempty"`
	OwnerID       uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	Text          string    `gorm:"column:text;not null" json:"text"`
	IsUserMessage bool      `gorm:"column:is_user_message;not null;default:false" json:"is_user_message"`
	CreatedAt     time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Message) TableName() string { return "message" }
