package approval

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/Kultup/helpDesk-sub006/bot/chat"
	"github.com/Kultup/helpDesk-sub006/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRequests struct {
	mu       sync.Mutex
	requests map[string]*entity.PositionRequest
}

func newFakeRequests() *fakeRequests {
	return &fakeRequests{requests: make(map[string]*entity.PositionRequest)}
}

func (f *fakeRequests) InsertPositionRequest(_ context.Context, req *entity.PositionRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *req
	f.requests[req.ID] = &cp
	return nil
}

func (f *fakeRequests) GetPositionRequest(_ context.Context, id string) (*entity.PositionRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return nil, nil
	}
	cp := *req
	return &cp, nil
}

func (f *fakeRequests) FindPendingRequestByConversation(_ context.Context, conversationID string) (*entity.PositionRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, req := range f.requests {
		if req.LinkedConversation == conversationID && req.Status == entity.RequestPending {
			cp := *req
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRequests) ResolvePositionRequest(_ context.Context, id, adminID, status, reason string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok || req.Status != entity.RequestPending {
		return false, nil
	}
	req.Status = status
	req.ResolvedByAdminID = adminID
	req.RejectionReason = reason
	return true, nil
}

func (f *fakeRequests) SetRequestCreatedPosition(_ context.Context, id, positionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req, ok := f.requests[id]; ok {
		req.CreatedPositionID = positionID
	}
	return nil
}

type fakePositions struct {
	mu       sync.Mutex
	existing map[string]*entity.Position // keyed by lowercase title
	inserted []*entity.Position
}

func newFakePositions() *fakePositions {
	return &fakePositions{existing: make(map[string]*entity.Position)}
}

func (f *fakePositions) FindPositionByTitle(_ context.Context, title string) (*entity.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.existing {
		if strings.EqualFold(p.Title, title) {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakePositions) InsertPosition(_ context.Context, p *entity.Position) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = "pos-new"
	f.inserted = append(f.inserted, p)
	return p.ID, nil
}

type fakeAdmins struct {
	admins map[string]bool
}

func (f *fakeAdmins) IsAdminChat(_ context.Context, chatID string) (bool, error) {
	return f.admins[chatID], nil
}

type notifierCall struct {
	kind   string
	chatID string
	title  string
	reason string
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notifierCall
}

func (f *fakeNotifier) NewPositionRequest(_ context.Context, req *entity.PositionRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, notifierCall{kind: "new", title: req.Title})
}

func (f *fakeNotifier) PositionRequestApproved(_ context.Context, chatID, title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, notifierCall{kind: "approved", chatID: chatID, title: title})
}

func (f *fakeNotifier) PositionRequestRejected(_ context.Context, chatID, title, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, notifierCall{kind: "rejected", chatID: chatID, title: title, reason: reason})
}

type resumeCall struct {
	chatID string
	stepID chat.StepID
}

type fakeResumer struct {
	mu    sync.Mutex
	calls []resumeCall
}

func (f *fakeResumer) ResumeAt(_ context.Context, _ chat.Messenger, chatID string, stepID chat.StepID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, resumeCall{chatID: chatID, stepID: stepID})
	return nil
}

type noopMessenger struct{}

func (noopMessenger) SendText(_, _ string) error                                { return nil }
func (noopMessenger) SendInlineGrid(_, _ string, _ [][]chat.InlineButton) error { return nil }
func (noopMessenger) SendContactRequest(_, _, _ string) error                   { return nil }
func (noopMessenger) RemoveKeyboard(_, _ string) error                          { return nil }

type fixture struct {
	svc       *Service
	requests  *fakeRequests
	positions *fakePositions
	notifier  *fakeNotifier
	resumer   *fakeResumer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	requests := newFakeRequests()
	positions := newFakePositions()
	notifier := &fakeNotifier{}
	resumer := &fakeResumer{}
	admins := &fakeAdmins{admins: map[string]bool{"admin-1": true, "admin-2": true}}

	svc := New(requests, positions, admins, notifier, resumer, noopMessenger{}, chat.StepID("position"), testLogger())
	return &fixture{svc: svc, requests: requests, positions: positions, notifier: notifier, resumer: resumer}
}

func TestCreateRequestFansOut(t *testing.T) {
	f := newFixture(t)

	req, err := f.svc.CreateRequest(context.Background(), "Лаборант", "chat-9", "olena", "chat-9")
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, entity.RequestPending, req.Status)

	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, "new", f.notifier.calls[0].kind)
	assert.Equal(t, "Лаборант", f.notifier.calls[0].title)
}

func TestCreateRequestSecondPendingRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateRequest(ctx, "Лаборант", "chat-9", "olena", "chat-9")
	require.NoError(t, err)

	_, err = f.svc.CreateRequest(ctx, "Інженер", "chat-9", "olena", "chat-9")
	assert.ErrorIs(t, err, ErrPendingExists)
}

func TestApproveCreatesPositionAndResumes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.svc.CreateRequest(ctx, "Лаборант", "chat-9", "olena", "chat-9")
	require.NoError(t, err)

	require.NoError(t, f.svc.Approve(ctx, req.ID, "admin-1"))

	stored, _ := f.requests.GetPositionRequest(ctx, req.ID)
	assert.Equal(t, entity.RequestApproved, stored.Status)
	assert.Equal(t, "admin-1", stored.ResolvedByAdminID)
	assert.Equal(t, "pos-new", stored.CreatedPositionID)

	require.Len(t, f.positions.inserted, 1)
	created := f.positions.inserted[0]
	assert.Equal(t, "Лаборант", created.Title)
	assert.Equal(t, entity.DefaultPositionCategory, created.Category)
	assert.True(t, created.Active)
	assert.True(t, created.Public)
	assert.Equal(t, "admin-1", created.CreatedBy)

	require.Len(t, f.resumer.calls, 1)
	assert.Equal(t, "chat-9", f.resumer.calls[0].chatID)
	assert.Equal(t, chat.StepID("position"), f.resumer.calls[0].stepID)
}

func TestApproveReusesExistingPosition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.positions.existing["лаборант"] = &entity.Position{ID: "pos-77", Title: "лаборант"}

	req, err := f.svc.CreateRequest(ctx, "Лаборант", "chat-9", "olena", "chat-9")
	require.NoError(t, err)

	require.NoError(t, f.svc.Approve(ctx, req.ID, "admin-1"))

	assert.Empty(t, f.positions.inserted, "case-insensitive match must not duplicate the entry")
	stored, _ := f.requests.GetPositionRequest(ctx, req.ID)
	assert.Equal(t, "pos-77", stored.CreatedPositionID)
}

func TestDoubleResolutionFirstAdminWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.svc.CreateRequest(ctx, "Лаборант", "chat-9", "olena", "chat-9")
	require.NoError(t, err)

	require.NoError(t, f.svc.Approve(ctx, req.ID, "admin-1"))

	err = f.svc.Reject(ctx, req.ID, "admin-2", "дублікат")
	assert.ErrorIs(t, err, ErrAlreadyProcessed)

	stored, _ := f.requests.GetPositionRequest(ctx, req.ID)
	assert.Equal(t, entity.RequestApproved, stored.Status)
	assert.Equal(t, "admin-1", stored.ResolvedByAdminID)
}

func TestRejectNotifiesWithReasonAndResumes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.svc.CreateRequest(ctx, "Лаборант", "chat-9", "olena", "chat-9")
	require.NoError(t, err)

	require.NoError(t, f.svc.Reject(ctx, req.ID, "admin-2", "вже є схожа посада"))

	stored, _ := f.requests.GetPositionRequest(ctx, req.ID)
	assert.Equal(t, entity.RequestRejected, stored.Status)
	assert.Equal(t, "вже є схожа посада", stored.RejectionReason)

	last := f.notifier.calls[len(f.notifier.calls)-1]
	assert.Equal(t, "rejected", last.kind)
	assert.Equal(t, "chat-9", last.chatID)
	assert.Equal(t, "вже є схожа посада", last.reason)

	require.Len(t, f.resumer.calls, 1)
	assert.Equal(t, "chat-9", f.resumer.calls[0].chatID)
}

func TestResolutionRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.svc.CreateRequest(ctx, "Лаборант", "chat-9", "olena", "chat-9")
	require.NoError(t, err)

	err = f.svc.Approve(ctx, req.ID, "chat-9")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	err = f.svc.Reject(ctx, req.ID, "stranger", "")
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestResolveUnknownRequest(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Approve(context.Background(), "missing", "admin-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRequestWithoutConversationSkipsResume(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req, err := f.svc.CreateRequest(ctx, "Лаборант", "chat-9", "olena", "")
	require.NoError(t, err)

	require.NoError(t, f.svc.Approve(ctx, req.ID, "admin-1"))
	assert.Empty(t, f.resumer.calls)
}
