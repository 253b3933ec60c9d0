package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/campusconnect/api/model"
	"github.com/campusconnect/api/services/storage"
	"github.com/campusconnect/api/utils"
	"github.com/robfig/cron/v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Job names as recorded in cron_job_logs
const (
	JobOrphanBlobSweep       = "orphan_blob_sweep"
	JobTokenBlacklistCleanup = "token_blacklist_cleanup"
	JobNotificationCleanup   = "notification_cleanup"
)

// TokenJanitor purges expired revocations
type TokenJanitor interface {
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// NotificationJanitor purges read notifications
type NotificationJanitor interface {
	CleanupRead(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Config holds schedules in six-field (seconds) cron syntax
type Config struct {
	OrphanSweepSpec    string
	OrphanGracePeriod  time.Duration
	BlacklistSweepSpec string
	NoticeSweepSpec    string
	NoticeRetention    time.Duration
	JobTimeout         time.Duration
}

func (c *Config) defaults() {
	if c.OrphanSweepSpec == "" {
		c.OrphanSweepSpec = "0 0 * * * *"
	}
	if c.OrphanGracePeriod <= 0 {
		c.OrphanGracePeriod = 24 * time.Hour
	}
	if c.BlacklistSweepSpec == "" {
		c.BlacklistSweepSpec = "0 30 3 * * *"
	}
	if c.NoticeSweepSpec == "" {
		c.NoticeSweepSpec = "0 0 4 * * *"
	}
	if c.NoticeRetention <= 0 {
		c.NoticeRetention = 30 * 24 * time.Hour
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = 10 * time.Minute
	}
}

// JobResult is what a job reports back for its log row
type JobResult struct {
	Message  string
	Metadata map[string]interface{}
}

// CronManager manages all scheduled maintenance jobs
type CronManager struct {
	cron    *cron.Cron
	db      *gorm.DB
	blobs   storage.BlobStore
	tokens  TokenJanitor
	notices NotificationJanitor
	log     *utils.Logger
	config  Config
	now     func() time.Time
}

// NewCronManager creates a cron manager. blobs or tokens may be nil, which
// leaves the matching job unscheduled.
func NewCronManager(db *gorm.DB, blobs storage.BlobStore, tokens TokenJanitor, log *utils.Logger, config Config) *CronManager {
	config.defaults()
	return &CronManager{
		cron:   cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		db:     db,
		blobs:  blobs,
		tokens: tokens,
		log:    log,
		config: config,
		now:    time.Now,
	}
}

// WithNotificationCleanup schedules the purge of old read notifications
func (m *CronManager) WithNotificationCleanup(notices NotificationJanitor) *CronManager {
	m.notices = notices
	return m
}

// Start registers and starts all jobs
func (m *CronManager) Start() error {
	m.log.Info("starting cron jobs")
	if err := m.registerJobs(); err != nil {
		return err
	}
	m.cron.Start()
	m.log.Info("cron jobs started", "entries", len(m.cron.Entries()))
	return nil
}

// Stop waits for running jobs to finish
func (m *CronManager) Stop() {
	m.log.Info("stopping cron jobs")
	<-m.cron.Stop().Done()
	m.log.Info("cron jobs stopped")
}

func (m *CronManager) registerJobs() error {
	if m.blobs != nil {
		if _, err := m.cron.AddFunc(m.config.OrphanSweepSpec, func() {
			m.RunJob(context.Background(), JobOrphanBlobSweep, m.SweepOrphanBlobs)
		}); err != nil {
			return fmt.Errorf("invalid schedule for %s: %w", JobOrphanBlobSweep, err)
		}
	}

	if m.tokens != nil {
		if _, err := m.cron.AddFunc(m.config.BlacklistSweepSpec, func() {
			m.RunJob(context.Background(), JobTokenBlacklistCleanup, m.CleanupTokenBlacklist)
		}); err != nil {
			return fmt.Errorf("invalid schedule for %s: %w", JobTokenBlacklistCleanup, err)
		}
	}

	if m.notices != nil {
		if _, err := m.cron.AddFunc(m.config.NoticeSweepSpec, func() {
			m.RunJob(context.Background(), JobNotificationCleanup, m.CleanupNotifications)
		}); err != nil {
			return fmt.Errorf("invalid schedule for %s: %w", JobNotificationCleanup, err)
		}
	}

	return nil
}

// RunJob executes job once and records it in cron_job_logs
func (m *CronManager) RunJob(ctx context.Context, name string, job func(context.Context) (*JobResult, error)) {
	ctx, cancel := context.WithTimeout(ctx, m.config.JobTimeout)
	defer cancel()

	started := m.now()
	entry := model.CronJobLog{
		JobName:   name,
		Status:    model.CronStatusStarted,
		StartedAt: started,
		Metadata:  datatypes.JSON("{}"),
	}
	if err := m.db.Create(&entry).Error; err != nil {
		m.log.Warn("failed to record cron job start", "job", name, "error", err)
	}
	m.log.Info("cron job started", "job", name)

	result, err := job(ctx)

	completed := m.now()
	updates := map[string]interface{}{
		"completed_at": completed,
		"duration":     int(completed.Sub(started).Milliseconds()),
	}
	if err != nil {
		updates["status"] = model.CronStatusFailed
		updates["error_msg"] = err.Error()
		m.log.Error("cron job failed", "job", name, "error", err)
	} else {
		updates["status"] = model.CronStatusCompleted
		if result != nil {
			updates["message"] = result.Message
			if meta, mErr := json.Marshal(result.Metadata); mErr == nil && result.Metadata != nil {
				updates["metadata"] = datatypes.JSON(meta)
			}
			m.log.Info("cron job completed", "job", name, "message", result.Message)
		}
	}

	if entry.ID == 0 {
		return
	}
	if err := m.db.Model(&model.CronJobLog{}).Where("id = ?", entry.ID).Updates(updates).Error; err != nil {
		m.log.Warn("failed to record cron job result", "job", name, "error", err)
	}
}
