package registration

import "context"

// Core routes registration review outcomes from the helpdesk backend
// to the notification dispatcher.
type Core interface {
	RegistrationApproved(ctx context.Context, chatID string)
	RegistrationRejected(ctx context.Context, chatID, reason string)
}
