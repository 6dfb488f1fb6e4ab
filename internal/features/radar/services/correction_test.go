package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"pr-radar/internal/core"
	"pr-radar/internal/features/radar/models"
)

func newTestCorrections(t *testing.T) (*ArchiveService, *CorrectionService, *testClock) {
	t.Helper()

	clock := newTestClock(baseTime)
	db := openTestDB(t)
	archive := NewArchiveService(db, core.NewDiscardLogger(), NewPressNormalizer(nil)).WithClock(clock.Now)
	if err := archive.EnsureFolders(context.Background(), DefaultFolders()); err != nil {
		t.Fatalf("Failed to seed folders: %v", err)
	}
	return archive, NewCorrectionService(db, core.NewDiscardLogger()).WithClock(clock.Now), clock
}

func TestCorrectionLifecycle(t *testing.T) {
	archive, corrections, clock := newTestCorrections(t)
	ctx := context.Background()

	saved, _, err := archive.Promote(ctx, stagedArticle("a1", linkOf(1), baseTime.Add(-time.Hour), "소송"), "위기관리", "")
	if err != nil {
		t.Fatalf("Promote failed: %v", err)
	}

	item, err := corrections.Open(ctx, saved, "제목 정정 요청")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if item.Status != models.CorrectionRequested || item.SavedID != saved.SavedID || item.Press != saved.Press {
		t.Errorf("Unexpected correction %+v", item)
	}

	clock.Advance(time.Hour)
	updated, err := corrections.Update(ctx, item.ID, models.CorrectionResolved, "정정 보도 확인")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Status != models.CorrectionResolved || updated.Memo != "정정 보도 확인" {
		t.Errorf("Expected status and memo to be overwritten, got %+v", updated)
	}
	if !updated.UpdatedAt.Equal(baseTime.Add(time.Hour)) || !updated.CreatedAt.Equal(baseTime) {
		t.Errorf("Unexpected timestamps %v / %v", updated.CreatedAt, updated.UpdatedAt)
	}

	// Any status may follow any other
	if _, err := corrections.Update(ctx, item.ID, models.CorrectionRequested, ""); err != nil {
		t.Errorf("Expected reopening to be allowed, got %v", err)
	}

	if _, err := corrections.Update(ctx, item.ID, models.CorrectionStatus("done"), ""); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("Expected invalid status error, got %v", err)
	}
	if _, err := corrections.Update(ctx, "missing", models.CorrectionResolved, ""); !errors.Is(err, ErrCorrectionNotFound) {
		t.Errorf("Expected correction not found, got %v", err)
	}
	if _, err := corrections.Get(ctx, "missing"); !errors.Is(err, ErrCorrectionNotFound) {
		t.Errorf("Expected correction not found, got %v", err)
	}
}

func TestCorrectionListOrderAndFilter(t *testing.T) {
	archive, corrections, _ := newTestCorrections(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		saved, _, err := archive.Promote(ctx, stagedArticle(linkOf(i), linkOf(i), baseTime.Add(time.Duration(i)*time.Hour)), "보도자료", "")
		if err != nil {
			t.Fatalf("Promote failed: %v", err)
		}
		item, err := corrections.Open(ctx, saved, "")
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		ids = append(ids, item.ID)
	}

	if _, err := corrections.Update(ctx, ids[1], models.CorrectionUnverifiable, "회신 없음"); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	all, err := corrections.List(ctx, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 || all[0].ID != ids[2] || all[2].ID != ids[0] {
		t.Errorf("Expected newest-published first")
	}

	pending, _ := corrections.List(ctx, models.CorrectionRequested)
	if len(pending) != 2 {
		t.Errorf("Expected 2 pending requests, got %d", len(pending))
	}

	count, err := corrections.CountByStatus(ctx, models.CorrectionUnverifiable)
	if err != nil || count != 1 {
		t.Errorf("Expected 1 unverifiable request, got %d (%v)", count, err)
	}
}

func TestParseCorrectionStatus(t *testing.T) {
	tests := map[string]models.CorrectionStatus{
		"requested": models.CorrectionRequested,
		"RESOLVED":  models.CorrectionResolved,
		"확인불가":      models.CorrectionUnverifiable,
		" 수정완료 ":    models.CorrectionResolved,
	}

	for input, want := range tests {
		got, err := models.ParseCorrectionStatus(input)
		if err != nil || got != want {
			t.Errorf("ParseCorrectionStatus(%q): expected %s, got %s (%v)", input, want, got, err)
		}
	}

	if _, err := models.ParseCorrectionStatus("done"); err == nil {
		t.Error("Expected unknown status to be rejected")
	}
}
