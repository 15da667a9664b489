package entity

import "time"

// SLA is the resolution-time budget attached to a ticket once work
// begins. It is owned by the ticket subsystem; the bot only reads it.
type SLA struct {
	Hours            float64   `json:"hours" bson:"hours"`
	Deadline         time.Time `json:"deadline" bson:"deadline"`
	AssignedAt       time.Time `json:"assigned_at" bson:"assigned_at"`
	WarnedThresholds []float64 `json:"warned_thresholds" bson:"warned_thresholds"`
}

// RemainingHours returns the wall-clock hours left until the deadline.
// Negative values mean the deadline has passed.
func (s *SLA) RemainingHours(now time.Time) float64 {
	return s.Deadline.Sub(now).Hours()
}

// Warned reports whether a warning for the given threshold was already
// dispatched for this ticket.
func (s *SLA) Warned(threshold float64) bool {
	for _, t := range s.WarnedThresholds {
		if t == threshold {
			return true
		}
	}
	return false
}

type Ticket struct {
	ID            string    `json:"id" bson:"_id,omitempty"`
	Number        int       `json:"number" bson:"number"`
	Title         string    `json:"title" bson:"title"`
	Status        string    `json:"status" bson:"status"`
	CreatorID     string    `json:"creator_id" bson:"creator_id"`
	CreatorChatID string    `json:"creator_chat_id" bson:"creator_chat_id"`
	Rating        int       `json:"rating" bson:"rating"`
	SLA           *SLA      `json:"sla" bson:"sla"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

const (
	TicketNew        = "new"
	TicketInProgress = "in_progress"
	TicketClosed     = "closed"
)

// IsActive reports whether the ticket is still being worked on and so
// subject to SLA deadline checks.
func (t *Ticket) IsActive() bool {
	return t.Status == TicketInProgress
}
