package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docupine/docupine-backend/internal/platform/apierr"
	"github.com/docupine/docupine-backend/internal/platform/logger"
	"github.com/docupine/docupine-backend/internal/platform/vector"
	"github.com/docupine/docupine-backend/internal/repos"
	"github.com/docupine/docupine-backend/internal/types"
)

type DocumentService interface {
	// GetByStorageKey is the upload poll target; a nil document with a
	// nil error means not ingested yet.
	GetByStorageKey(ctx context.Context, ownerID uuid.UUID, storageKey string) (*types.Document, error)
	GetByID(ctx context.Context, ownerID, documentID uuid.UUID) (*types.Document, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*types.Document, error)
	// Delete removes the row, its chunks, and the vector namespace.
	Delete(ctx context.Context, ownerID, documentID uuid.UUID) error
}

type documentService struct {
	db     *gorm.DB
	log    *logger.Logger
	docs   repos.DocumentRepo
	chunks repos.DocumentChunkRepo
	store  vector.Store
}

func NewDocumentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	docs repos.DocumentRepo,
	chunks repos.DocumentChunkRepo,
	store vector.Store,
) DocumentService {
	return &documentService{
		db:     db,
		log:    baseLog.With("service", "DocumentService"),
		docs:   docs,
		chunks: chunks,
		store:  store,
	}
}

func (s *documentService) GetByStorageKey(ctx context.Context, ownerID uuid.UUID, storageKey string) (*types.Document, error) {
	doc, err := s.docs.GetByStorageKey(ctx, nil, storageKey)
	if err != nil {
		return nil, apierr.Database(err)
	}
	if doc == nil || doc.OwnerID != ownerID {
		// Cross-owner lookups get the same answer as absent keys.
		return nil, nil
	}
	return doc, nil
}

func (s *documentService) GetByID(ctx context.Context, ownerID, documentID uuid.UUID) (*types.Document, error) {
	doc, err := s.docs.GetByID(ctx, nil, documentID, ownerID)
	if err != nil {
		return nil, apierr.Database(err)
	}
	if doc == nil {
		return nil, apierr.NotFound(apierr.CodeDocumentNotFound)
	}
	return doc, nil
}

func (s *documentService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*types.Document, error) {
	docs, err := s.docs.ListByOwner(ctx, nil, ownerID)
	if err != nil {
		return nil, apierr.Database(err)
	}
	return docs, nil
}

func (s *documentService) Delete(ctx context.Context, ownerID, documentID uuid.UUID) error {
	doc, err := s.GetByID(ctx, ownerID, documentID)
	if err != nil {
		return err
	}

	// Vector namespace first: a leftover namespace with no row would be
	// unreachable garbage, a row with no namespace is still listable.
	if err := s.store.DeleteNamespace(ctx, doc.ID.String()); err != nil {
		s.log.Warn("Vector namespace delete failed, continuing with row delete",
			"document_id", doc.ID,
			"error", err,
		)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.chunks.DeleteByDocumentID(ctx, tx, doc.ID); err != nil {
			return err
		}
		return s.docs.DeleteByID(ctx, tx, doc.ID, ownerID)
	})
	if err != nil {
		return apierr.Database(err)
	}
	s.log.Info("Document deleted", "document_id", doc.ID, "owner_id", ownerID)
	return nil
}
