package registration

import (
	"context"
	"log/slog"

	"github.com/Kultup/helpDesk-sub006/bot/chat"
	"github.com/Kultup/helpDesk-sub006/entity"
	"github.com/Kultup/helpDesk-sub006/internal/validation"
)

// Workflow ID
const (
	WorkflowID chat.WorkflowID = "registration"
)

// Step IDs, in canonical order. The step value stored in a conversation
// only moves forward through this order, except for the explicit resets
// performed by the approval workflow and the pre-completion rewind.
const (
	StepFirstName   chat.StepID = "first_name"
	StepLastName    chat.StepID = "last_name"
	StepEmail       chat.StepID = "email"
	StepLogin       chat.StepID = "login"
	StepPhone       chat.StepID = "phone"
	StepPassword    chat.StepID = "password"
	StepCity        chat.StepID = "city"
	StepInstitution chat.StepID = "institution"
	StepPosition    chat.StepID = "position"
	StepCompleted   chat.StepID = "completed"
)

// Collected field keys.
const (
	KeyFirstName     = "first_name"
	KeyLastName      = "last_name"
	KeyEmail         = "email"
	KeyLogin         = "login"
	KeyPhone         = "phone"
	KeyPassword      = "password"
	KeyCityID        = "city_id"
	KeyInstitutionID = "institution_id"
	KeyPositionID    = "position_id"
	KeyDepartment    = "department"
)

// CatalogRepository provides the reference catalogs shown on the
// selection steps. Only active (and for positions, public) entries are
// returned.
type CatalogRepository interface {
	GetActiveCities(ctx context.Context) ([]entity.City, error)
	GetActiveInstitutions(ctx context.Context, cityID string) ([]entity.Institution, error)
	// GetPublicPositions filters by institution when institutionID is
	// non-empty; an empty id returns the whole public catalog.
	GetPublicPositions(ctx context.Context, institutionID string) ([]entity.Position, error)
}

// PositionRequester creates position requests for titles missing from
// the catalog.
type PositionRequester interface {
	CreateRequest(ctx context.Context, title, requesterChatID, requesterUsername, linkedConversation string) (*entity.PositionRequest, error)
}

// AccountGateway submits the completed registration to the account
// creation API. ok=false with a message means the API rejected the
// payload; err means the API was unreachable.
type AccountGateway interface {
	Register(ctx context.Context, state *chat.ConversationState) (ok bool, message string, err error)
}

// Workflow implements the registration conversation.
type Workflow struct {
	steps     map[chat.StepID]chat.Step
	catalogs  CatalogRepository
	checker   *validation.Checker
	requester PositionRequester
	gateway   AccountGateway
	log       *slog.Logger
}

// New creates the registration workflow with all steps registered.
func New(catalogs CatalogRepository, checker *validation.Checker, requester PositionRequester, gateway AccountGateway, log *slog.Logger) *Workflow {
	w := &Workflow{
		steps:     make(map[chat.StepID]chat.Step),
		catalogs:  catalogs,
		checker:   checker,
		requester: requester,
		gateway:   gateway,
		log:       log,
	}
	w.registerSteps()
	return w
}

// ID returns the workflow ID.
func (w *Workflow) ID() chat.WorkflowID {
	return WorkflowID
}

// InitialStep returns the first step.
func (w *Workflow) InitialStep() chat.StepID {
	return StepFirstName
}

// GetStep returns a step by ID.
func (w *Workflow) GetStep(id chat.StepID) (chat.Step, bool) {
	step, ok := w.steps[id]
	return step, ok
}

func (w *Workflow) registerSteps() {
	w.steps[StepFirstName] = NewFirstNameStep()
	w.steps[StepLastName] = NewLastNameStep()
	w.steps[StepEmail] = NewEmailStep(w.checker)
	w.steps[StepLogin] = NewLoginStep(w.checker)
	w.steps[StepPhone] = NewPhoneStep()
	w.steps[StepPassword] = NewPasswordStep()
	w.steps[StepCity] = NewCityStep(w.catalogs)
	w.steps[StepInstitution] = NewInstitutionStep(w.catalogs)
	w.steps[StepPosition] = NewPositionStep(w.catalogs, w.requester, w.log)
	w.steps[StepCompleted] = NewCompletedStep(w.gateway, w.log)
}

// requiredSteps maps the fields that must exist before the completion
// gateway may run to the step that collects them, in canonical order.
var requiredSteps = []struct {
	key  string
	step chat.StepID
}{
	{KeyLogin, StepLogin},
	{KeyCityID, StepCity},
	{KeyPositionID, StepPosition},
}

// firstMissingRequiredStep returns the earliest step whose required
// field is absent, or "" when the state is complete. The completion
// step rewinds there instead of failing, preserving everything already
// collected.
func firstMissingRequiredStep(state *chat.ConversationState) chat.StepID {
	for _, r := range requiredSteps {
		if state.GetString(r.key) == "" {
			return r.step
		}
	}
	return ""
}
