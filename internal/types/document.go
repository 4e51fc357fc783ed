package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "PENDING"
	DocumentStatusProcessing DocumentStatus = "PROCESSING"
	DocumentStatusSuccess    DocumentStatus = "SUCCESS"
	DocumentStatusFailed     DocumentStatus = "FAILED"
)

// Document is one uploaded file. StorageKey is unique: ingestion is
// at-most-once per key.
type Document struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StorageKey    string         `gorm:"column:storage_key;not null;uniqueIndex" json:"storage_key"`
	Name          string         `gorm:"column:name;not null" json:"name"`
	OwnerID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_id"`
	SourceURL     string         `gorm:"column:source_url" json:"source_url"`
	Status        DocumentStatus `gorm:"column:status;not null;default:'PENDING'" json:"status"`
	FailureReason string         `gorm:"column:failure_reason" json:"failure_reason,omitempty"`
	PageCount     int            `gorm:"column:page_count" json:"page_count"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Document) TableName() string { return "document" }
