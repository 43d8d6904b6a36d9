package runstate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&StageRun{}))
	return New(db)
}

func TestBeginCompleteRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run, err := s.Begin(ctx, "site1", StageTranscribe, "fp-1")
	require.NoError(t, err)
	require.NoError(t, s.Complete(ctx, run, 3, Detail{"feed": "abc"}))

	fp, ok, err := s.LastCompletedFingerprint(ctx, "site1", StageTranscribe)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "fp-1", fp)
}

func TestLastCompletedFingerprintMissing(t *testing.T) {
	s := newTestStore(t)
	_, ok, err := s.LastCompletedFingerprint(context.Background(), "site1", StageIndex)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFailedRunDoesNotCountAsCompleted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run, err := s.Begin(ctx, "site1", StageSync, "fp-2")
	require.NoError(t, err)
	require.NoError(t, s.Fail(ctx, run, assertError("boom")))

	_, ok, err := s.LastCompletedFingerprint(ctx, "site1", StageSync)
	require.NoError(t, err)
	assert.False(t, ok)
}

type assertError string

func (e assertError) Error() string { return string(e) }

func TestFingerprintIsOrderIndependent(t *testing.T) {
	a := Fingerprint([]string{"b", "a", "c"})
	b := Fingerprint([]string{"c", "b", "a"})
	assert.Equal(t, a, b)
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	r1, _ := s.Begin(ctx, "site1", StageRetrieval, "fp-a")
	require.NoError(t, s.Complete(ctx, r1, 1, nil))
	r2, _ := s.Begin(ctx, "site1", StageTranscribe, "fp-b")
	require.NoError(t, s.Complete(ctx, r2, 2, nil))

	runs, err := s.Recent(ctx, "site1", 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, StageTranscribe, runs[0].Stage)
	assert.Equal(t, StageRetrieval, runs[1].Stage)
}
