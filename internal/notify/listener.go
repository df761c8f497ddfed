package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/voxic/multi-odl-demo/internal/domain"
	"github.com/voxic/multi-odl-demo/internal/envelope"
)

const (
	minReconnectInterval = time.Second
	maxReconnectInterval = 30 * time.Second
	pingInterval         = 90 * time.Second
)

type scheduler interface {
	Enqueue(customerID int64) bool
}

// notification is the trigger payload: operation plus the candidate key
// fields of the changed document.
type notification struct {
	Operation string            `json:"operation"`
	Doc       envelope.Document `json:"doc"`
}

// Listener watches the per-collection notification channels and schedules a
// targeted rebuild for every insert/update it can attribute to a customer.
// Durability is the transport's problem: a notification that cannot be
// derived is logged and dropped, and the reconciliation sweep picks up the
// slack.
type Listener struct {
	databaseURL string
	accounts    accountSource
	sched       scheduler
	logger      *slog.Logger

	pl *pq.Listener
}

func NewListener(databaseURL string, accounts accountSource, sched scheduler, logger *slog.Logger) *Listener {
	return &Listener{
		databaseURL: databaseURL,
		accounts:    accounts,
		sched:       sched,
		logger:      logger,
	}
}

// Start subscribes to every watched collection's channel and begins
// dispatching. A subscription failure here is a startup connectivity failure
// and is returned to the caller, which treats it as fatal.
func (l *Listener) Start(ctx context.Context) error {
	l.pl = pq.NewListener(l.databaseURL, minReconnectInterval, maxReconnectInterval,
		func(event pq.ListenerEventType, err error) {
			if err != nil {
				l.logger.Warn("listener connection event", "event", int(event), "error", err)
			}
		})

	for _, col := range domain.WatchedCollections {
		if err := l.pl.Listen(col.Channel()); err != nil {
			l.pl.Close()
			return fmt.Errorf("Start: listen %s: %w", col.Channel(), err)
		}
	}
	l.logger.Info("change listener started", "channels", len(domain.WatchedCollections))

	go l.dispatch(ctx)
	return nil
}

func (l *Listener) dispatch(ctx context.Context) {
	defer l.pl.Close()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("change listener stopped")
			return
		case n := <-l.pl.Notify:
			// nil means the connection was re-established; nothing to do.
			if n != nil {
				l.handle(ctx, n)
			}
		case <-time.After(pingInterval):
			if err := l.pl.Ping(); err != nil {
				l.logger.Warn("listener ping failed", "error", err)
			}
		}
	}
}

func (l *Listener) handle(ctx context.Context, n *pq.Notification) {
	var note notification
	if err := json.Unmarshal([]byte(n.Extra), &note); err != nil {
		l.logger.Warn("malformed notification payload", "channel", n.Channel, "error", err)
		return
	}

	// Deletes are deliberately ignored: profiles are overwrite-only.
	if note.Operation != "INSERT" && note.Operation != "UPDATE" {
		return
	}

	customerID, err := DeriveCustomerID(ctx, note.Doc, l.accounts)
	if err != nil {
		l.logger.Warn("dropping notification", "channel", n.Channel, "error", err)
		return
	}

	l.logger.Debug("change notification", "channel", n.Channel,
		"operation", note.Operation, "customer_id", customerID)
	l.sched.Enqueue(customerID)
}
