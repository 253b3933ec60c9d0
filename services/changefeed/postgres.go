package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/campusconnect/api/utils"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// NotifyChannel is the Postgres channel carrying pending-collection changes
const NotifyChannel = "campusconnect_pending_changes"

// PostgresBroker publishes through NOTIFY and delivers notifications from
// every process (including this one) to local subscribers via LISTEN
type PostgresBroker struct {
	db       *gorm.DB
	listener *pq.Listener
	local    *MemoryBroker
	log      *utils.Logger
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewPostgresBroker opens a dedicated LISTEN connection on dsn
func NewPostgresBroker(dsn string, db *gorm.DB, log *utils.Logger) (*PostgresBroker, error) {
	b := &PostgresBroker{
		db:    db,
		local: NewMemoryBroker(),
		log:   log,
		done:  make(chan struct{}),
	}

	b.listener = pq.NewListener(dsn, 2*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnectionAttemptFailed, pq.ListenerEventDisconnected:
			log.Warn("changefeed listener connection problem", "event", int(ev), "error", err)
		case pq.ListenerEventReconnected:
			log.Info("changefeed listener reconnected")
		}
	})

	if err := b.listener.Listen(NotifyChannel); err != nil {
		_ = b.listener.Close()
		return nil, fmt.Errorf("listen %s: %w", NotifyChannel, err)
	}

	b.wg.Add(1)
	go b.run()
	return b, nil
}

func (b *PostgresBroker) run() {
	defer b.wg.Done()
	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-b.done:
			return
		case n, ok := <-b.listener.Notify:
			if !ok {
				return
			}
			if n == nil {
				// Connection was re-established; notifications may have been lost
				_ = b.local.Publish(context.Background(), Event{Action: ActionResync})
				continue
			}
			var ev Event
			if err := json.Unmarshal([]byte(n.Extra), &ev); err != nil {
				b.log.Warn("dropping malformed change notification", "payload", n.Extra, "error", err)
				continue
			}
			_ = b.local.Publish(context.Background(), ev)
		case <-ping.C:
			go func() {
				if err := b.listener.Ping(); err != nil {
					b.log.Warn("changefeed listener ping failed", "error", err)
				}
			}()
		}
	}
}

// Publish sends the event through pg_notify so other instances see it too
func (b *PostgresBroker) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.db.WithContext(ctx).Exec("SELECT pg_notify(?, ?)", NotifyChannel, string(payload)).Error
}

func (b *PostgresBroker) Subscribe() (<-chan Event, func()) {
	return b.local.Subscribe()
}

// Close stops the listener and ends every local subscription
func (b *PostgresBroker) Close() error {
	select {
	case <-b.done:
		return nil
	default:
	}
	close(b.done)
	err := b.listener.Close()
	b.wg.Wait()
	_ = b.local.Close()
	return err
}
