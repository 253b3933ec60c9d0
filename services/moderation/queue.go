package moderation

import (
	"context"
	"time"

	"github.com/campusconnect/api/model"
	"github.com/campusconnect/api/services/changefeed"
	"github.com/campusconnect/api/services/notification"
	"github.com/campusconnect/api/utils"
	"gorm.io/gorm"
)

type (
	MaterialWorkflow = Workflow[model.PendingAcademicMaterial, model.AcademicMaterial]
	ServiceWorkflow  = Workflow[model.PendingLocalService, model.LocalService]
)

// Queue is the moderation view over both pending collections
type Queue struct {
	Materials *MaterialWorkflow
	Services  *ServiceWorkflow
}

// NewQueue wires the two workflows. Every decision leaves a notice for the
// submitter.
func NewQueue(db *gorm.DB, feed changefeed.Publisher, log *utils.Logger) *Queue {
	q := &Queue{
		Materials: NewWorkflow(db, feed, log, changefeed.CollectionPendingMaterials,
			func(p model.PendingAcademicMaterial, by string, at time.Time) model.AcademicMaterial {
				return p.Promote(by, at)
			},
			func(m *model.AcademicMaterial) uint { return m.ID },
		),
		Services: NewWorkflow(db, feed, log, changefeed.CollectionPendingServices,
			func(p model.PendingLocalService, by string, at time.Time) model.LocalService {
				return p.Promote(by, at)
			},
			func(s *model.LocalService) uint { return s.ID },
		),
	}
	q.Materials.notice = notification.ForMaterial
	q.Services.notice = notification.ForService
	return q
}

// Snapshot is the full state of both queues
type Snapshot struct {
	Materials []model.PendingAcademicMaterial `json:"materials"`
	Services  []model.PendingLocalService     `json:"services"`
	TakenAt   time.Time                       `json:"taken_at"`
}

// Snapshot reads both pending collections
func (q *Queue) Snapshot(ctx context.Context) (*Snapshot, error) {
	materials, err := q.Materials.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	services, err := q.Services.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Materials: materials, Services: services, TakenAt: time.Now().UTC()}, nil
}

// Watch re-reads the queue after every change to a pending collection and
// hands the snapshot to emit. The first snapshot is sent immediately. Watch
// returns when ctx ends, the broker closes or emit fails.
func (q *Queue) Watch(ctx context.Context, broker changefeed.Broker, emit func(*Snapshot) error) error {
	events, cancel := broker.Subscribe()
	defer cancel()

	send := func() error {
		snap, err := q.Snapshot(ctx)
		if err != nil {
			return err
		}
		return emit(snap)
	}
	if err := send(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Action != changefeed.ActionResync &&
				ev.Collection != changefeed.CollectionPendingMaterials &&
				ev.Collection != changefeed.CollectionPendingServices {
				continue
			}
			// Collapse bursts into one snapshot
			drain(events)
			if err := send(); err != nil {
				return err
			}
		}
	}
}

func drain(events <-chan changefeed.Event) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
