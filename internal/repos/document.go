package repos

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docupine/docupine-backend/internal/platform/logger"
	"github.com/docupine/docupine-backend/internal/types"
)

var ErrStatusRegression = errors.New("document status regression refused")

type DocumentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, doc *types.Document) (*types.Document, error)
	GetByStorageKey(ctx context.Context, tx *gorm.DB, storageKey string) (*types.Document, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID, ownerID uuid.UUID) (*types.Document, error)
	ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.Document, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status types.DocumentStatus, failureReason string) error
	UpdatePageCount(ctx context.Context, tx *gorm.DB, id uuid.UUID, pages int) error
	DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID, ownerID uuid.UUID) error
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return &documentRepo{db: db, log: baseLog.With("repo", "DocumentRepo")}
}

func (r *documentRepo) Create(ctx context.Context, tx *gorm.DB, doc *types.Document) (*types.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if doc == nil {
		return nil, fmt.Errorf("document required")
	}
	if err := transaction.WithContext(ctx).Create(doc).Error; err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *documentRepo) GetByStorageKey(ctx context.Context, tx *gorm.DB, storageKey string) (*types.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var doc types.Document
	err := transaction.WithContext(ctx).
		Where("storage_key = ?", storageKey).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID, ownerID uuid.UUID) (*types.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var doc types.Document
	err := transaction.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepo) ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*types.Document, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Document
	if err := transaction.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// UpdateStatus enforces monotonicity: a document that has reached
// SUCCESS or FAILED never moves back to PENDING/PROCESSING.
func (r *documentRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status types.DocumentStatus, failureReason string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	q := transaction.WithContext(ctx).
		Model(&types.Document{}).
		Where("id = ?", id)
	if status == types.DocumentStatusPending || status == types.DocumentStatusProcessing {
		q = q.Where("status NOT IN ?", []types.DocumentStatus{
			types.DocumentStatusSuccess,
			types.DocumentStatusFailed,
		})
	}

	updates := map[string]any{"status": status}
	if failureReason != "" {
		updates["failure_reason"] = failureReason
	}

	res := q.Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if status == types.DocumentStatusPending || status == types.DocumentStatusProcessing {
			return ErrStatusRegression
		}
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *documentRepo) UpdatePageCount(ctx context.Context, tx *gorm.DB, id uuid.UUID, pages int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Document{}).
		Where("id = ?", id).
		Update("page_count", pages).Error
}

func (r *documentRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID, ownerID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&types.Document{}).Error
}
