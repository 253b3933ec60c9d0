// Package notification keeps submitters informed about moderation outcomes.
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/campusconnect/api/model"
	"github.com/campusconnect/api/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrNotFound is returned for a notification that does not exist or belongs
// to someone else
var ErrNotFound = errors.New("notification not found")

const (
	defaultLimit = 50
	maxLimit     = 100
)

// Service handles user notifications
type Service struct {
	db  *gorm.DB
	log *utils.Logger
	now func() time.Time
}

// NewService creates a new notification service
func NewService(db *gorm.DB, log *utils.Logger) *Service {
	return &Service{db: db, log: log, now: time.Now}
}

// ListOptions filters and pages a user's notifications
type ListOptions struct {
	UnreadOnly bool
	Category   string
	Limit      int
	Offset     int
}

func (o *ListOptions) normalize() {
	if o.Limit <= 0 {
		o.Limit = defaultLimit
	}
	if o.Limit > maxLimit {
		o.Limit = maxLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
}

// Page is one page of notifications plus the unread counter
type Page struct {
	Notifications []model.UserNotification `json:"notifications"`
	Total         int64                    `json:"total"`
	UnreadCount   int64                    `json:"unread_count"`
	Limit         int                      `json:"limit"`
	Offset        int                      `json:"offset"`
}

// List returns the user's notifications, newest first
func (s *Service) List(ctx context.Context, userID uint, opts ListOptions) (*Page, error) {
	opts.normalize()

	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Where("user_id = ?", userID)
		if opts.UnreadOnly {
			db = db.Where("read = ?", false)
		}
		if opts.Category != "" {
			db = db.Where("category = ?", opts.Category)
		}
		return db
	}

	page := &Page{Notifications: []model.UserNotification{}, Limit: opts.Limit, Offset: opts.Offset}
	if err := s.db.WithContext(ctx).Model(&model.UserNotification{}).Scopes(scope).Count(&page.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}
	if err := s.db.WithContext(ctx).Scopes(scope).
		Order("created_at DESC, id DESC").
		Limit(opts.Limit).
		Offset(opts.Offset).
		Find(&page.Notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}

	unread, err := s.UnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	page.UnreadCount = unread
	return page, nil
}

// UnreadCount returns the number of unread notifications for a user
func (s *Service) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.UserNotification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkAsRead marks one of the user's notifications as read
func (s *Service) MarkAsRead(ctx context.Context, id, userID uint) error {
	res := s.db.WithContext(ctx).Model(&model.UserNotification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return fmt.Errorf("failed to mark notification as read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllAsRead marks every unread notification of the user as read
func (s *Service) MarkAllAsRead(ctx context.Context, userID uint) (int64, error) {
	res := s.db.WithContext(ctx).Model(&model.UserNotification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark all notifications as read: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Delete removes one of the user's notifications
func (s *Service) Delete(ctx context.Context, id, userID uint) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.UserNotification{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete notification: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll removes every notification of the user
func (s *Service) DeleteAll(ctx context.Context, userID uint) (int64, error) {
	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.UserNotification{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete notifications: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// CleanupRead removes read notifications older than olderThan
func (s *Service) CleanupRead(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := s.now().Add(-olderThan)
	res := s.db.WithContext(ctx).
		Where("created_at < ? AND read = ?", cutoff, true).
		Delete(&model.UserNotification{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to clean up notifications: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		s.log.Info("cleaned up read notifications", "removed", res.RowsAffected)
	}
	return res.RowsAffected, nil
}

// Outcome describes a moderation decision on one submission
type Outcome struct {
	Approved   bool
	Collection string
	PendingID  uint
	PublicID   uint
}

// ForMaterial builds the submitter's notice for a moderated document. It
// returns nil when the submitter is unknown.
func ForMaterial(p model.PendingAcademicMaterial, o Outcome) *model.UserNotification {
	if p.SubmittedByID == 0 {
		return nil
	}
	n := &model.UserNotification{
		UserID:   p.SubmittedByID,
		Category: model.NotificationCategoryMaterialReview,
		Metadata: metadata(o),
	}
	if o.Approved {
		n.Type = model.NotificationTypeSuccess
		n.Title = "Document approved"
		n.Message = fmt.Sprintf("Your %s upload %q is now public.", p.Type, p.FileName)
	} else {
		n.Type = model.NotificationTypeWarning
		n.Title = "Document rejected"
		n.Message = fmt.Sprintf("Your %s upload %q was not accepted.", p.Type, p.FileName)
	}
	return n
}

// ForService builds the submitter's notice for a moderated local service
func ForService(p model.PendingLocalService, o Outcome) *model.UserNotification {
	if p.SubmittedByID == 0 {
		return nil
	}
	n := &model.UserNotification{
		UserID:   p.SubmittedByID,
		Category: model.NotificationCategoryServiceReview,
		Metadata: metadata(o),
	}
	if o.Approved {
		n.Type = model.NotificationTypeSuccess
		n.Title = "Service approved"
		n.Message = fmt.Sprintf("%s is now listed under %s.", p.Name, p.Area)
	} else {
		n.Type = model.NotificationTypeWarning
		n.Title = "Service rejected"
		n.Message = fmt.Sprintf("%s was not accepted for listing.", p.Name)
	}
	return n
}

func metadata(o Outcome) datatypes.JSON {
	raw, err := json.Marshal(model.NotificationMetadata{
		Collection: o.Collection,
		PendingID:  o.PendingID,
		PublicID:   o.PublicID,
	})
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
