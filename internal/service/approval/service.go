// Package approval manages the position request lifecycle: a user asks
// for a position missing from the catalog, every administrator gets
// approve/reject controls, and the first resolution wins.
package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Kultup/helpDesk-sub006/bot/chat"
	"github.com/Kultup/helpDesk-sub006/entity"
	"github.com/Kultup/helpDesk-sub006/internal/lib/sl"
)

var (
	// ErrNotAuthorized is returned when a non-administrator tries to
	// resolve a request.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrAlreadyProcessed is returned for approve/reject actions on a
	// request that has already left the pending status. Admin buttons
	// stay clickable after the first resolution, so this is an expected
	// acknowledgment, not a fault.
	ErrAlreadyProcessed = errors.New("request already processed")
	// ErrPendingExists is returned when a registration already has an
	// unresolved request.
	ErrPendingExists = errors.New("pending request exists")
	// ErrNotFound is returned for unknown request ids.
	ErrNotFound = errors.New("request not found")
)

// RequestRepository is the position request store.
type RequestRepository interface {
	InsertPositionRequest(ctx context.Context, req *entity.PositionRequest) error
	GetPositionRequest(ctx context.Context, id string) (*entity.PositionRequest, error)
	FindPendingRequestByConversation(ctx context.Context, conversationID string) (*entity.PositionRequest, error)
	// ResolvePositionRequest transitions pending -> status atomically
	// and reports whether this call performed the transition.
	ResolvePositionRequest(ctx context.Context, id, adminID, status, reason string) (bool, error)
	SetRequestCreatedPosition(ctx context.Context, id, positionID string) error
}

// PositionRepository is the position catalog store.
type PositionRepository interface {
	// FindPositionByTitle matches case-insensitively.
	FindPositionByTitle(ctx context.Context, title string) (*entity.Position, error)
	InsertPosition(ctx context.Context, p *entity.Position) (string, error)
}

// AdminChecker verifies the administrator capability of a chat.
type AdminChecker interface {
	IsAdminChat(ctx context.Context, chatID string) (bool, error)
}

// Notifier delivers position request outcomes. Delivery failures are
// the notifier's problem; it logs and never returns them here.
type Notifier interface {
	NewPositionRequest(ctx context.Context, req *entity.PositionRequest)
	PositionRequestApproved(ctx context.Context, chatID, title string)
	PositionRequestRejected(ctx context.Context, chatID, title, reason string)
}

// ConversationResumer puts a linked registration back on a given step
// and re-prompts, so the requester continues without resending /start.
type ConversationResumer interface {
	ResumeAt(ctx context.Context, m chat.Messenger, chatID string, stepID chat.StepID) error
}

// Service implements the approval workflow.
type Service struct {
	requests   RequestRepository
	positions  PositionRepository
	admins     AdminChecker
	notifier   Notifier
	resumer    ConversationResumer
	messenger  chat.Messenger
	resumeStep chat.StepID
	log        *slog.Logger
}

// New creates the approval service. resumeStep is the registration step
// a linked conversation is put back on after resolution.
func New(requests RequestRepository, positions PositionRepository, admins AdminChecker, notifier Notifier, resumer ConversationResumer, messenger chat.Messenger, resumeStep chat.StepID, log *slog.Logger) *Service {
	return &Service{
		requests:   requests,
		positions:  positions,
		admins:     admins,
		notifier:   notifier,
		resumer:    resumer,
		messenger:  messenger,
		resumeStep: resumeStep,
		log:        log.With(sl.Module("approval")),
	}
}

// CreateRequest registers a new position request and fans it out to all
// administrators. At most one pending request may exist per
// registration; a second ask returns ErrPendingExists.
func (s *Service) CreateRequest(ctx context.Context, title, requesterChatID, requesterUsername, linkedConversation string) (*entity.PositionRequest, error) {
	if linkedConversation != "" {
		pending, err := s.requests.FindPendingRequestByConversation(ctx, linkedConversation)
		if err != nil {
			return nil, fmt.Errorf("checking pending request: %w", err)
		}
		if pending != nil {
			return nil, ErrPendingExists
		}
	}

	req := entity.NewPositionRequest(title, requesterChatID, requesterUsername, linkedConversation)
	if err := s.requests.InsertPositionRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("inserting request: %w", err)
	}

	s.log.Info("position request created",
		slog.String("request_id", req.ID),
		slog.String("title", title),
		slog.String("requester", requesterChatID),
	)

	s.notifier.NewPositionRequest(ctx, req)
	return req, nil
}

// Approve resolves a pending request positively: the requested title is
// matched against the catalog case-insensitively and reused when found,
// otherwise a new position attributed to the approving admin is
// created. The linked registration, if any, is advanced back onto the
// position step.
func (s *Service) Approve(ctx context.Context, requestID, adminChatID string) error {
	req, err := s.authorize(ctx, requestID, adminChatID)
	if err != nil {
		return err
	}

	won, err := s.requests.ResolvePositionRequest(ctx, requestID, adminChatID, entity.RequestApproved, "")
	if err != nil {
		return fmt.Errorf("resolving request: %w", err)
	}
	if !won {
		return ErrAlreadyProcessed
	}

	positionID, err := s.findOrCreatePosition(ctx, req.Title, adminChatID)
	if err != nil {
		// The resolution already won; record what we can and report.
		s.log.Error("position creation after approval", sl.Err(err))
		return err
	}
	if err := s.requests.SetRequestCreatedPosition(ctx, requestID, positionID); err != nil {
		s.log.Error("recording created position", sl.Err(err))
	}

	s.log.Info("position request approved",
		slog.String("request_id", requestID),
		slog.String("admin", adminChatID),
		slog.String("position_id", positionID),
	)

	s.notifier.PositionRequestApproved(ctx, req.RequesterChatID, req.Title)
	s.resumeLinked(ctx, req)
	return nil
}

// Reject resolves a pending request negatively with an optional
// free-text reason. The linked registration is put back on the position
// step so the requester picks from the existing catalog.
func (s *Service) Reject(ctx context.Context, requestID, adminChatID, reason string) error {
	req, err := s.authorize(ctx, requestID, adminChatID)
	if err != nil {
		return err
	}

	won, err := s.requests.ResolvePositionRequest(ctx, requestID, adminChatID, entity.RequestRejected, reason)
	if err != nil {
		return fmt.Errorf("resolving request: %w", err)
	}
	if !won {
		return ErrAlreadyProcessed
	}

	s.log.Info("position request rejected",
		slog.String("request_id", requestID),
		slog.String("admin", adminChatID),
	)

	s.notifier.PositionRequestRejected(ctx, req.RequesterChatID, req.Title, reason)
	s.resumeLinked(ctx, req)
	return nil
}

// authorize checks the admin capability and loads the request. The
// pending check here is advisory; the atomic resolve is the real guard.
func (s *Service) authorize(ctx context.Context, requestID, adminChatID string) (*entity.PositionRequest, error) {
	isAdmin, err := s.admins.IsAdminChat(ctx, adminChatID)
	if err != nil {
		return nil, fmt.Errorf("checking admin capability: %w", err)
	}
	if !isAdmin {
		return nil, ErrNotAuthorized
	}

	req, err := s.requests.GetPositionRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("loading request: %w", err)
	}
	if req == nil {
		return nil, ErrNotFound
	}
	if !req.IsPending() {
		return nil, ErrAlreadyProcessed
	}
	return req, nil
}

func (s *Service) findOrCreatePosition(ctx context.Context, title, adminID string) (string, error) {
	existing, err := s.positions.FindPositionByTitle(ctx, title)
	if err != nil {
		return "", fmt.Errorf("looking up position: %w", err)
	}
	if existing != nil {
		return existing.ID, nil
	}

	return s.positions.InsertPosition(ctx, &entity.Position{
		Title:     title,
		Category:  entity.DefaultPositionCategory,
		Active:    true,
		Public:    true,
		CreatedBy: adminID,
		CreatedAt: time.Now(),
	})
}

func (s *Service) resumeLinked(ctx context.Context, req *entity.PositionRequest) {
	if req.LinkedConversation == "" {
		return
	}
	if err := s.resumer.ResumeAt(ctx, s.messenger, req.LinkedConversation, s.resumeStep); err != nil {
		s.log.Error("resuming linked conversation",
			slog.String("request_id", req.ID),
			sl.Err(err),
		)
	}
}
