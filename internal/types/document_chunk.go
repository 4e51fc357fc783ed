package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DocumentChunk is one page-level unit of extracted text. Rows are
// written once per ingestion run and never mutated.
type DocumentChunk struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DocumentID uuid.UUID      `gorm:"type:uuid;not null;index" json:"document_id"`
	Document   *Document      `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"document,omitempty"`
	Page       int            `gorm:"column:page;not null" json:"page"`
	Text       string         `gorm:"column:text;not null" json:"text"`
	Metadata   datatypes.JSON `gorm:"type:jsonb;column:metadata" json:"metadata"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (DocumentChunk) TableName() string { return "document_chunk" }
