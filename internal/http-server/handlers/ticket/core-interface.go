package ticket

import (
	"context"

	"github.com/Kultup/helpDesk-sub006/entity"
)

// Core routes ticket lifecycle events from the helpdesk backend to the
// notification dispatcher.
type Core interface {
	TicketCreated(ctx context.Context, t *entity.Ticket)
	TicketClosed(ctx context.Context, t *entity.Ticket)
	TicketStatusChanged(ctx context.Context, t *entity.Ticket, oldStatus string)
	SLAAssigned(ctx context.Context, t *entity.Ticket)
}
