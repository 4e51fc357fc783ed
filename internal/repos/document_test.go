package repos

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/docupine/docupine-backend/internal/repos/testutil"
	"github.com/docupine/docupine-backend/internal/types"
)

func TestDocumentRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewDocumentRepo(db, testutil.Logger(t))
	owner := uuid.New()

	doc, err := repo.Create(ctx, tx, &types.Document{
		StorageKey: "doc-repo-key-1",
		Name:       "report.pdf",
		OwnerID:    owner,
		Status:     types.DocumentStatusProcessing,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if doc.ID == uuid.Nil {
		t.Fatalf("Create: no id assigned")
	}

	if got, err := repo.GetByStorageKey(ctx, tx, "doc-repo-key-1"); err != nil || got == nil {
		t.Fatalf("GetByStorageKey: got=%v err=%v", got, err)
	}
	if got, err := repo.GetByStorageKey(ctx, tx, "absent-key"); err != nil || got != nil {
		t.Fatalf("GetByStorageKey absent: want nil,nil got=%v err=%v", got, err)
	}

	if got, err := repo.GetByID(ctx, tx, doc.ID, owner); err != nil || got == nil {
		t.Fatalf("GetByID: got=%v err=%v", got, err)
	}
	if got, err := repo.GetByID(ctx, tx, doc.ID, uuid.New()); err != nil || got != nil {
		t.Fatalf("GetByID foreign owner: want nil,nil got=%v err=%v", got, err)
	}

	if rows, err := repo.ListByOwner(ctx, tx, owner); err != nil || len(rows) != 1 {
		t.Fatalf("ListByOwner: err=%v len=%d", err, len(rows))
	}

	if err := repo.UpdatePageCount(ctx, tx, doc.ID, 7); err != nil {
		t.Fatalf("UpdatePageCount: %v", err)
	}
	if err := repo.UpdateStatus(ctx, tx, doc.ID, types.DocumentStatusSuccess, ""); err != nil {
		t.Fatalf("UpdateStatus SUCCESS: %v", err)
	}
	got, err := repo.GetByID(ctx, tx, doc.ID, owner)
	if err != nil {
		t.Fatalf("GetByID after update: %v", err)
	}
	if got.Status != types.DocumentStatusSuccess || got.PageCount != 7 {
		t.Fatalf("after update: status=%s pages=%d", got.Status, got.PageCount)
	}

	if err := repo.DeleteByID(ctx, tx, doc.ID, owner); err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if got, err := repo.GetByID(ctx, tx, doc.ID, owner); err != nil || got != nil {
		t.Fatalf("GetByID after delete: want nil,nil got=%v err=%v", got, err)
	}
}

func TestDocumentRepoStatusMonotonic(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewDocumentRepo(db, testutil.Logger(t))
	owner := uuid.New()

	doc, err := repo.Create(ctx, tx, &types.Document{
		StorageKey: "doc-repo-monotonic",
		Name:       "report.pdf",
		OwnerID:    owner,
		Status:     types.DocumentStatusProcessing,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.UpdateStatus(ctx, tx, doc.ID, types.DocumentStatusFailed, "page_limit_exceeded"); err != nil {
		t.Fatalf("UpdateStatus FAILED: %v", err)
	}

	// Terminal states never move back to PROCESSING.
	err = repo.UpdateStatus(ctx, tx, doc.ID, types.DocumentStatusProcessing, "")
	if !errors.Is(err, ErrStatusRegression) {
		t.Fatalf("UpdateStatus regression: want ErrStatusRegression got=%v", err)
	}

	got, err := repo.GetByID(ctx, tx, doc.ID, owner)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != types.DocumentStatusFailed || got.FailureReason != "page_limit_exceeded" {
		t.Fatalf("status=%s reason=%q, want FAILED/page_limit_exceeded", got.Status, got.FailureReason)
	}
}
