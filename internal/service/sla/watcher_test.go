package sla

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Kultup/helpDesk-sub006/entity"
	"github.com/Kultup/helpDesk-sub006/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeTickets struct {
	mu      sync.Mutex
	tickets []entity.Ticket
	warned  map[string][]float64
}

func newFakeTickets(tickets ...entity.Ticket) *fakeTickets {
	return &fakeTickets{tickets: tickets, warned: make(map[string][]float64)}
}

func (f *fakeTickets) GetActiveTicketsWithSLA(_ context.Context) ([]entity.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entity.Ticket, len(f.tickets))
	copy(out, f.tickets)
	return out, nil
}

func (f *fakeTickets) MarkSLAWarned(_ context.Context, ticketID string, threshold float64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, seen := range f.warned[ticketID] {
		if seen == threshold {
			return false, nil
		}
	}
	f.warned[ticketID] = append(f.warned[ticketID], threshold)
	for i := range f.tickets {
		if f.tickets[i].ID == ticketID {
			f.tickets[i].SLA.WarnedThresholds = append(f.tickets[i].SLA.WarnedThresholds, threshold)
		}
	}
	return true, nil
}

type warning struct {
	ticketID  string
	remaining float64
}

type fakeNotifier struct {
	mu       sync.Mutex
	warnings []warning
}

func (f *fakeNotifier) SLAWarning(_ context.Context, t *entity.Ticket, remainingHours float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.warnings = append(f.warnings, warning{ticketID: t.ID, remaining: remainingHours})
}

func watcherConf(thresholds ...float64) *config.Config {
	conf := &config.Config{}
	conf.SLA.CheckIntervalMinutes = 10
	conf.SLA.WarningThresholds = thresholds
	return conf
}

func activeTicket(id string, deadlineIn time.Duration) entity.Ticket {
	now := time.Now()
	return entity.Ticket{
		ID:            id,
		Status:        entity.TicketInProgress,
		CreatorChatID: "100",
		SLA: &entity.SLA{
			Hours:      8,
			Deadline:   now.Add(deadlineIn),
			AssignedAt: now,
		},
	}
}

func TestCheckWarnsWhenThresholdCrossed(t *testing.T) {
	tickets := newFakeTickets(activeTicket("t1", 30*time.Minute))
	notifier := &fakeNotifier{}
	w := NewWatcher(watcherConf(1), tickets, notifier, testLogger())

	w.Check(context.Background())

	require.Len(t, notifier.warnings, 1)
	assert.Equal(t, "t1", notifier.warnings[0].ticketID)
	assert.InDelta(t, 0.5, notifier.warnings[0].remaining, 0.1)
}

func TestCheckSkipsDistantDeadlines(t *testing.T) {
	tickets := newFakeTickets(activeTicket("t1", 6*time.Hour))
	notifier := &fakeNotifier{}
	w := NewWatcher(watcherConf(4, 1), tickets, notifier, testLogger())

	w.Check(context.Background())

	assert.Empty(t, notifier.warnings)
}

func TestCheckNeverRepeatsAThreshold(t *testing.T) {
	tickets := newFakeTickets(activeTicket("t1", 30*time.Minute))
	notifier := &fakeNotifier{}
	w := NewWatcher(watcherConf(1), tickets, notifier, testLogger())

	w.Check(context.Background())
	w.Check(context.Background())
	w.Check(context.Background())

	assert.Len(t, notifier.warnings, 1, "one warning per ticket per threshold")
}

func TestCheckFiresEachThresholdOnce(t *testing.T) {
	tickets := newFakeTickets(activeTicket("t1", 30*time.Minute))
	notifier := &fakeNotifier{}
	// both thresholds already crossed
	w := NewWatcher(watcherConf(4, 1), tickets, notifier, testLogger())

	w.Check(context.Background())
	w.Check(context.Background())

	assert.Len(t, notifier.warnings, 2)
}

func TestCheckWarnsOverdueTickets(t *testing.T) {
	tickets := newFakeTickets(activeTicket("t1", -2*time.Hour))
	notifier := &fakeNotifier{}
	w := NewWatcher(watcherConf(1), tickets, notifier, testLogger())

	w.Check(context.Background())

	require.Len(t, notifier.warnings, 1)
	assert.Less(t, notifier.warnings[0].remaining, 0.0)
}

func TestPersistedThresholdsSuppressResends(t *testing.T) {
	ticket := activeTicket("t1", 30*time.Minute)
	ticket.SLA.WarnedThresholds = []float64{1}
	tickets := newFakeTickets(ticket)
	notifier := &fakeNotifier{}
	w := NewWatcher(watcherConf(1), tickets, notifier, testLogger())

	w.Check(context.Background())

	assert.Empty(t, notifier.warnings, "a restart must not resend recorded warnings")
}
