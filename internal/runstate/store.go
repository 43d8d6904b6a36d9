package runstate

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Store persists StageRun rows for idempotency decisions across
// orchestrator invocations. It is backed by the same sqlite database the
// teacher used for its job queue, repurposed here for run bookkeeping
// instead of async work dispatch.
type Store struct {
	db *gorm.DB
}

// New wraps an already-migrated *gorm.DB. Callers migrate with
// db.AutoMigrate(&runstate.StageRun{}) once at startup.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Begin records the start of a stage run and returns the row so the
// caller can later mark it Complete or Fail.
func (s *Store) Begin(ctx context.Context, siteID string, stage Stage, fingerprint string) (*StageRun, error) {
	run := &StageRun{
		SiteID:      siteID,
		Stage:       stage,
		Status:      StageStatusRunning,
		Fingerprint: fingerprint,
		StartedAt:   time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

// Complete marks a run successful, recording how many items it wrote.
func (s *Store) Complete(ctx context.Context, run *StageRun, itemsWritten int, detail Detail) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Model(run).Updates(map[string]interface{}{
		"status":        StageStatusCompleted,
		"items_written": itemsWritten,
		"completed_at":  &now,
		"detail":        detail,
	}).Error
}

// Fail marks a run failed with the triggering error's message.
func (s *Store) Fail(ctx context.Context, run *StageRun, cause error) error {
	now := time.Now().UTC()
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return s.db.WithContext(ctx).Model(run).Updates(map[string]interface{}{
		"status":       StageStatusFailed,
		"completed_at": &now,
		"error":        msg,
	}).Error
}

// LastCompletedFingerprint returns the fingerprint recorded by the most
// recent completed run of (siteID, stage), and false if none exists yet.
func (s *Store) LastCompletedFingerprint(ctx context.Context, siteID string, stage Stage) (string, bool, error) {
	var run StageRun
	err := s.db.WithContext(ctx).
		Where("site_id = ? AND stage = ? AND status = ?", siteID, stage, StageStatusCompleted).
		Order("id DESC").
		First(&run).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", false, nil
		}
		return "", false, err
	}
	return run.Fingerprint, true, nil
}

// Recent returns the most recent N runs for a site across all stages,
// newest first, for surfacing as status (the search server's /health
// endpoint reports the latest one).
func (s *Store) Recent(ctx context.Context, siteID string, limit int) ([]StageRun, error) {
	var runs []StageRun
	q := s.db.WithContext(ctx).Where("site_id = ?", siteID).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
