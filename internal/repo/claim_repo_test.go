package repo

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/tbourn/go-claims-backend/internal/domain"
)

// newTestDB opens a fresh migrated SQLite database in a temp dir.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestCreateClaim_DefaultsToDraft(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	c, err := CreateClaim(ctx, db, "u1", "owner@example.com")
	if err != nil {
		t.Fatalf("CreateClaim: %v", err)
	}
	if c.ID == "" {
		t.Fatal("expected generated ID")
	}
	if c.Status != domain.StatusDraft {
		t.Fatalf("expected draft, got %q", c.Status)
	}
	if c.CurrentStep != 1 {
		t.Fatalf("expected current step 1, got %d", c.CurrentStep)
	}

	got, err := GetClaim(ctx, db, c.ID, "u1")
	if err != nil {
		t.Fatalf("GetClaim: %v", err)
	}
	if got.PolicyholderEmail != "owner@example.com" {
		t.Fatalf("unexpected email %q", got.PolicyholderEmail)
	}
}

func TestGetClaim_ScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	c, err := CreateClaim(ctx, db, "u1", "")
	if err != nil {
		t.Fatalf("CreateClaim: %v", err)
	}

	if _, err := GetClaim(ctx, db, c.ID, "someone-else"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for wrong owner, got %v", err)
	}
}

func TestListClaimsPage_And_Count(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := CreateClaim(ctx, db, "u1", ""); err != nil {
			t.Fatalf("CreateClaim #%d: %v", i, err)
		}
	}
	if _, err := CreateClaim(ctx, db, "u2", ""); err != nil {
		t.Fatalf("CreateClaim other user: %v", err)
	}

	total, err := CountClaims(ctx, db, "u1")
	if err != nil || total != 5 {
		t.Fatalf("CountClaims: total=%d err=%v", total, err)
	}

	page, err := ListClaimsPage(ctx, db, "u1", 0, 3)
	if err != nil {
		t.Fatalf("ListClaimsPage: %v", err)
	}
	if len(page) != 3 {
		t.Fatalf("expected 3 claims, got %d", len(page))
	}

	rest, err := ListClaimsPage(ctx, db, "u1", 3, 3)
	if err != nil || len(rest) != 2 {
		t.Fatalf("second page: n=%d err=%v", len(rest), err)
	}
}

func TestUpdateClaimStatus_Persists_And_GuardsOwnership(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	c, err := CreateClaim(ctx, db, "u1", "")
	if err != nil {
		t.Fatalf("CreateClaim: %v", err)
	}

	if err := UpdateClaimStatus(ctx, db, c.ID, "u1", domain.StatusFiled); err != nil {
		t.Fatalf("UpdateClaimStatus: %v", err)
	}
	got, _ := GetClaim(ctx, db, c.ID, "u1")
	if got.Status != domain.StatusFiled {
		t.Fatalf("expected filed, got %q", got.Status)
	}

	if err := UpdateClaimStatus(ctx, db, c.ID, "intruder", domain.StatusClosed); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for wrong owner, got %v", err)
	}
	if err := UpdateClaimStatus(ctx, db, "missing", "u1", domain.StatusClosed); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing claim, got %v", err)
	}
}

func TestUpdateClaimSteps_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	c, err := CreateClaim(ctx, db, "u1", "")
	if err != nil {
		t.Fatalf("CreateClaim: %v", err)
	}

	if err := UpdateClaimSteps(ctx, db, c.ID, "u1", 3, "1,2"); err != nil {
		t.Fatalf("UpdateClaimSteps: %v", err)
	}
	got, _ := GetClaim(ctx, db, c.ID, "u1")
	if got.CurrentStep != 3 || got.StepsCompleted != "1,2" {
		t.Fatalf("unexpected steps: cur=%d completed=%q", got.CurrentStep, got.StepsCompleted)
	}
	steps := got.Steps()
	if len(steps) != 2 || steps[0] != 1 || steps[1] != 2 {
		t.Fatalf("Steps() = %v", steps)
	}
}

func TestClaimsStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	count, max, err := ClaimsStats(ctx, db, "u1")
	if err != nil || count != 0 || max != nil {
		t.Fatalf("empty stats: count=%d max=%v err=%v", count, max, err)
	}

	if _, err := CreateClaim(ctx, db, "u1", ""); err != nil {
		t.Fatalf("CreateClaim: %v", err)
	}
	count, max, err = ClaimsStats(ctx, db, "u1")
	if err != nil {
		t.Fatalf("ClaimsStats: %v", err)
	}
	if count != 1 || max == nil || max.IsZero() {
		t.Fatalf("stats after insert: count=%d max=%v", count, max)
	}
}
