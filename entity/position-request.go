package entity

import (
	"time"

	"github.com/google/uuid"
)

// PositionRequest is a user-originated ask to add a new job position to
// the catalog. It is resolved exactly once by an administrator and is
// never deleted afterwards.
type PositionRequest struct {
	ID                 string     `json:"id" bson:"_id"`
	Title              string     `json:"title" bson:"title"`
	RequesterChatID    string     `json:"requester_chat_id" bson:"requester_chat_id"`
	RequesterUsername  string     `json:"requester_username" bson:"requester_username"`
	LinkedConversation string     `json:"linked_conversation" bson:"linked_conversation"`
	Status             string     `json:"status" bson:"status"`
	ResolvedByAdminID  string     `json:"resolved_by_admin_id" bson:"resolved_by_admin_id"`
	ResolvedAt         *time.Time `json:"resolved_at" bson:"resolved_at"`
	RejectionReason    string     `json:"rejection_reason" bson:"rejection_reason"`
	CreatedPositionID  string     `json:"created_position_id" bson:"created_position_id"`
	CreatedAt          time.Time  `json:"created_at" bson:"created_at"`
}

const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

func NewPositionRequest(title, requesterChatID, requesterUsername, linkedConversation string) *PositionRequest {
	return &PositionRequest{
		ID:                 uuid.NewString(),
		Title:              title,
		RequesterChatID:    requesterChatID,
		RequesterUsername:  requesterUsername,
		LinkedConversation: linkedConversation,
		Status:             RequestPending,
		CreatedAt:          time.Now(),
	}
}

// IsPending reports whether the request can still be resolved.
func (r *PositionRequest) IsPending() bool {
	return r.Status == RequestPending
}
