package cron

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/campusconnect/api/database/dbtest"
	"github.com/campusconnect/api/model"
	"github.com/campusconnect/api/services/storage"
	"github.com/campusconnect/api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJanitor struct {
	removed int64
	err     error
}

func (f *fakeJanitor) CleanupExpiredTokens(context.Context) (int64, error) {
	return f.removed, f.err
}

type fakeNotices struct {
	retention time.Duration
	removed   int64
}

func (f *fakeNotices) CleanupRead(_ context.Context, olderThan time.Duration) (int64, error) {
	f.retention = olderThan
	return f.removed, nil
}

func put(t *testing.T, blobs *storage.MemoryStore, key string) {
	t.Helper()
	_, err := blobs.Put(context.Background(), key, bytes.NewReader([]byte("x")), "text/plain")
	require.NoError(t, err)
}

func TestSweepOrphanBlobs(t *testing.T) {
	db := dbtest.New(t)
	blobs := storage.NewMemoryStore("")
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	// Two days old
	blobs.SetClock(func() time.Time { return now.Add(-48 * time.Hour) })
	put(t, blobs, "academic_materials/1/pending.pdf")
	put(t, blobs, "academic_materials/1/public.pdf")
	put(t, blobs, "academic_materials/1/orphan.pdf")
	put(t, blobs, "other/1/untouched.pdf")

	// Fresh upload whose record may still be in flight
	blobs.SetClock(func() time.Time { return now.Add(-time.Minute) })
	put(t, blobs, "academic_materials/2/fresh.pdf")

	fields := func(key string) model.MaterialFields {
		return model.MaterialFields{UniversityID: 1, CourseID: 1, Branch: "CSE", Year: "1st Year", Type: "PYQ",
			FileURL: "/" + key, FileName: "f.pdf", FileKey: key, SubmittedBy: "s@example.com", SubmittedAt: now}
	}
	require.NoError(t, db.Create(&model.PendingAcademicMaterial{MaterialFields: fields("academic_materials/1/pending.pdf"), Status: model.StatusPending}).Error)
	require.NoError(t, db.Create(&model.AcademicMaterial{MaterialFields: fields("academic_materials/1/public.pdf"), Status: model.StatusApproved, ApprovedBy: "a@example.com", ApprovedAt: now}).Error)

	m := NewCronManager(db, blobs, nil, utils.NewNopLogger(), Config{OrphanGracePeriod: 24 * time.Hour})
	m.now = func() time.Time { return now }

	result, err := m.SweepOrphanBlobs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Metadata["deleted"])

	_, ok := blobs.Bytes("academic_materials/1/orphan.pdf")
	assert.False(t, ok)
	for _, kept := range []string{
		"academic_materials/1/pending.pdf",
		"academic_materials/1/public.pdf",
		"academic_materials/2/fresh.pdf",
		"other/1/untouched.pdf",
	} {
		_, ok := blobs.Bytes(kept)
		assert.True(t, ok, kept)
	}
}

func TestRunJob_RecordsOutcome(t *testing.T) {
	db := dbtest.New(t)
	m := NewCronManager(db, nil, &fakeJanitor{removed: 3}, utils.NewNopLogger(), Config{})

	m.RunJob(context.Background(), JobTokenBlacklistCleanup, m.CleanupTokenBlacklist)

	var entry model.CronJobLog
	require.NoError(t, db.Where("job_name = ?", JobTokenBlacklistCleanup).First(&entry).Error)
	assert.Equal(t, model.CronStatusCompleted, entry.Status)
	assert.Equal(t, "Removed 3 expired blacklist entries", entry.Message)
	assert.NotNil(t, entry.CompletedAt)
	assert.JSONEq(t, `{"removed":3}`, string(entry.Metadata))

	m.tokens = &fakeJanitor{err: errors.New("db down")}
	m.RunJob(context.Background(), JobTokenBlacklistCleanup, m.CleanupTokenBlacklist)

	var failed model.CronJobLog
	require.NoError(t, db.Where("status = ?", model.CronStatusFailed).First(&failed).Error)
	assert.Contains(t, failed.ErrorMsg, "db down")
}

func TestStart_RejectsBadSchedule(t *testing.T) {
	db := dbtest.New(t)
	m := NewCronManager(db, storage.NewMemoryStore(""), nil, utils.NewNopLogger(), Config{OrphanSweepSpec: "not a schedule"})
	assert.Error(t, m.Start())

	ok := NewCronManager(db, storage.NewMemoryStore(""), &fakeJanitor{}, utils.NewNopLogger(), Config{}).
		WithNotificationCleanup(&fakeNotices{})
	require.NoError(t, ok.Start())
	assert.Len(t, ok.cron.Entries(), 3)
	ok.Stop()
}

func TestCleanupNotifications(t *testing.T) {
	db := dbtest.New(t)
	notices := &fakeNotices{removed: 4}
	m := NewCronManager(db, nil, nil, utils.NewNopLogger(), Config{}).WithNotificationCleanup(notices)

	m.RunJob(context.Background(), JobNotificationCleanup, m.CleanupNotifications)

	var entry model.CronJobLog
	require.NoError(t, db.Where("job_name = ?", JobNotificationCleanup).First(&entry).Error)
	assert.Equal(t, model.CronStatusCompleted, entry.Status)
	assert.Equal(t, "Removed 4 read notifications", entry.Message)
	assert.Equal(t, 30*24*time.Hour, notices.retention)
}
