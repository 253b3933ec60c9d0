// Package moderation moves pending submissions to the public collections or
// discards them. Both collections share one workflow type.
package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/campusconnect/api/model"
	"github.com/campusconnect/api/services/changefeed"
	"github.com/campusconnect/api/services/notification"
	"github.com/campusconnect/api/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotPending is returned when the item was already moderated or never existed
var ErrNotPending = errors.New("item is no longer pending")

// Moderator identifies the admin acting on the queue
type Moderator struct {
	ID        uint
	Email     string
	IPAddress string
}

// Approval is the outcome of a successful approve
type Approval[Pub any] struct {
	PendingID uint `json:"pending_id"`
	Public    Pub  `json:"public"`
}

// Workflow is the pending → approved | rejected state machine for one pair
// of pending and public collections
type Workflow[P any, Pub any] struct {
	db         *gorm.DB
	feed       changefeed.Publisher
	log        *utils.Logger
	collection string
	promote    func(p P, approvedBy string, at time.Time) Pub
	publicID   func(pub *Pub) uint
	notice     func(p P, o notification.Outcome) *model.UserNotification
	now        func() time.Time
}

// NewWorkflow builds a workflow. promote builds the public record and
// publicID reads the identity assigned to it on insert.
func NewWorkflow[P any, Pub any](db *gorm.DB, feed changefeed.Publisher, log *utils.Logger, collection string,
	promote func(P, string, time.Time) Pub, publicID func(*Pub) uint) *Workflow[P, Pub] {
	return &Workflow[P, Pub]{
		db:         db,
		feed:       feed,
		log:        log,
		collection: collection,
		promote:    promote,
		publicID:   publicID,
		now:        time.Now,
	}
}

// Collection names the pending collection this workflow moderates
func (w *Workflow[P, Pub]) Collection() string {
	return w.collection
}

// ListPending returns the queue, oldest submission first
func (w *Workflow[P, Pub]) ListPending(ctx context.Context) ([]P, error) {
	items := []P{}
	if err := w.db.WithContext(ctx).
		Where("status = ?", model.StatusPending).
		Order("submitted_at ASC, id ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", w.collection, err)
	}
	return items, nil
}

// Approve publishes the pending item. Lock, delete, insert and audit commit
// together; a concurrent approve of the same item gets ErrNotPending.
func (w *Workflow[P, Pub]) Approve(ctx context.Context, id uint, by Moderator) (*Approval[Pub], error) {
	var result *Approval[Pub]

	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pending, err := w.take(tx, id)
		if err != nil {
			return err
		}

		public := w.promote(*pending, by.Email, w.now())
		if err := tx.Create(&public).Error; err != nil {
			return fmt.Errorf("failed to create public record: %w", err)
		}
		publicID := w.publicID(&public)

		if err := w.audit(tx, by, model.AuditActionApprove, id, publicID, pending); err != nil {
			return err
		}
		if err := w.notify(tx, pending, notification.Outcome{Approved: true, PendingID: id, PublicID: publicID}); err != nil {
			return err
		}

		result = &Approval[Pub]{PendingID: id, Public: public}
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.publish(ctx, changefeed.ActionApproved, id)
	w.log.Info("pending item approved", "collection", w.collection, "pending_id", id, "public_id", w.publicID(&result.Public), "admin_id", by.ID)
	return result, nil
}

// Reject discards the pending item and records who did it
func (w *Workflow[P, Pub]) Reject(ctx context.Context, id uint, by Moderator) error {
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pending, err := w.take(tx, id)
		if err != nil {
			return err
		}
		if err := w.audit(tx, by, model.AuditActionReject, id, 0, pending); err != nil {
			return err
		}
		return w.notify(tx, pending, notification.Outcome{PendingID: id})
	})
	if err != nil {
		return err
	}

	w.publish(ctx, changefeed.ActionRejected, id)
	w.log.Info("pending item rejected", "collection", w.collection, "pending_id", id, "admin_id", by.ID)
	return nil
}

// take locks the pending row and removes it. Only the caller whose delete
// affects the row may continue.
func (w *Workflow[P, Pub]) take(tx *gorm.DB, id uint) (*P, error) {
	var pending P
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND status = ?", id, model.StatusPending).
		First(&pending).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotPending
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pending item: %w", err)
	}

	res := tx.Where("id = ? AND status = ?", id, model.StatusPending).Delete(new(P))
	if res.Error != nil {
		return nil, fmt.Errorf("failed to delete pending item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotPending
	}
	return &pending, nil
}

func (w *Workflow[P, Pub]) audit(tx *gorm.DB, by Moderator, action string, pendingID, publicID uint, pending *P) error {
	snapshot, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("failed to encode audit snapshot: %w", err)
	}
	entry := model.AdminAuditLog{
		AdminID:     by.ID,
		AdminEmail:  by.Email,
		Action:      action,
		Resource:    w.collection,
		ResourceID:  pendingID,
		TargetID:    publicID,
		Snapshot:    datatypes.JSON(snapshot),
		IPAddress:   by.IPAddress,
		Description: fmt.Sprintf("%s %s #%d", action, w.collection, pendingID),
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// notify writes the submitter's notice in the moderation transaction
func (w *Workflow[P, Pub]) notify(tx *gorm.DB, pending *P, o notification.Outcome) error {
	if w.notice == nil {
		return nil
	}
	o.Collection = w.collection
	n := w.notice(*pending, o)
	if n == nil {
		return nil
	}
	if err := tx.Create(n).Error; err != nil {
		return fmt.Errorf("failed to write notification: %w", err)
	}
	return nil
}

func (w *Workflow[P, Pub]) publish(ctx context.Context, action string, id uint) {
	if w.feed == nil {
		return
	}
	ev := changefeed.Event{Collection: w.collection, Action: action, ID: id}
	if err := w.feed.Publish(context.WithoutCancel(ctx), ev); err != nil {
		w.log.Warn("change event not published", "collection", w.collection, "id", id, "error", err)
	}
}
