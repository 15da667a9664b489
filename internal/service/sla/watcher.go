// Package sla runs the deadline watcher: a background loop that scans
// active tickets and dispatches a warning once per configured threshold
// crossing. The dispatcher itself is stateless; the watcher owns the
// duplicate suppression by persisting warned thresholds on the ticket.
package sla

import (
	"context"
	"log/slog"
	"time"

	"github.com/Kultup/helpDesk-sub006/entity"
	"github.com/Kultup/helpDesk-sub006/internal/config"
	"github.com/Kultup/helpDesk-sub006/internal/lib/sl"
)

// TicketRepository provides the tickets subject to deadline checks.
type TicketRepository interface {
	GetActiveTicketsWithSLA(ctx context.Context) ([]entity.Ticket, error)
	// MarkSLAWarned records a dispatched threshold and reports whether
	// this call was the one that recorded it. The atomic add is the
	// at-most-once guard for racing watcher runs.
	MarkSLAWarned(ctx context.Context, ticketID string, threshold float64) (bool, error)
}

// Notifier dispatches the warning messages.
type Notifier interface {
	SLAWarning(ctx context.Context, t *entity.Ticket, remainingHours float64)
}

// Watcher periodically checks ticket deadlines.
type Watcher struct {
	tickets    TicketRepository
	notifier   Notifier
	thresholds []float64
	interval   time.Duration
	stopChan   chan struct{}
	log        *slog.Logger
}

// NewWatcher creates the deadline watcher from the SLA config section.
func NewWatcher(conf *config.Config, tickets TicketRepository, notifier Notifier, log *slog.Logger) *Watcher {
	return &Watcher{
		tickets:    tickets,
		notifier:   notifier,
		thresholds: conf.SLA.WarningThresholds,
		interval:   time.Duration(conf.SLA.CheckIntervalMinutes) * time.Minute,
		stopChan:   make(chan struct{}),
		log:        log.With(sl.Module("sla watcher")),
	}
}

// Start runs the check loop in a goroutine. The first pass runs
// immediately so restarts do not delay overdue warnings.
func (w *Watcher) Start(ctx context.Context) {
	w.log.Info("starting sla watcher",
		slog.Duration("interval", w.interval),
		slog.Any("thresholds_hours", w.thresholds),
	)
	go w.run(ctx)
}

// Stop terminates the loop.
func (w *Watcher) Stop() {
	close(w.stopChan)
}

func (w *Watcher) run(ctx context.Context) {
	w.Check(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Check(ctx)
		case <-w.stopChan:
			w.log.Info("sla watcher stopped")
			return
		case <-ctx.Done():
			w.log.Info("sla watcher cancelled")
			return
		}
	}
}

// Check runs a single scan over active tickets.
func (w *Watcher) Check(ctx context.Context) {
	tickets, err := w.tickets.GetActiveTicketsWithSLA(ctx)
	if err != nil {
		w.log.Error("loading active tickets", sl.Err(err))
		return
	}

	now := time.Now()
	for i := range tickets {
		w.checkTicket(ctx, &tickets[i], now)
	}
}

func (w *Watcher) checkTicket(ctx context.Context, t *entity.Ticket, now time.Time) {
	remaining := t.SLA.RemainingHours(now)

	for _, threshold := range w.thresholds {
		if remaining > threshold || t.SLA.Warned(threshold) {
			continue
		}
		won, err := w.tickets.MarkSLAWarned(ctx, t.ID, threshold)
		if err != nil {
			w.log.Error("marking sla threshold",
				slog.String("ticket_id", t.ID),
				sl.Err(err),
			)
			continue
		}
		if !won {
			continue
		}
		w.log.Info("sla warning dispatched",
			slog.String("ticket_id", t.ID),
			slog.Float64("threshold_hours", threshold),
			slog.Float64("remaining_hours", remaining),
		)
		w.notifier.SLAWarning(ctx, t, remaining)
	}
}
