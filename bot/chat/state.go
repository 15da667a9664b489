package chat

import "time"

// ConversationState is the persisted record of a chat's in-progress
// registration. One document exists per chat identity; abandoned
// registrations are removed by a TTL index on created_at.
type ConversationState struct {
	ChatID      string         `json:"chat_id" bson:"chat_id"`
	WorkflowID  WorkflowID     `json:"workflow_id" bson:"workflow_id"`
	CurrentStep StepID         `json:"current_step" bson:"current_step"`
	Fields      map[string]any `json:"fields" bson:"fields"`
	Username    string         `json:"username" bson:"username"`
	CreatedAt   time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" bson:"updated_at"`
}

// NewConversationState creates a fresh state positioned at the initial step.
func NewConversationState(chatID, username string, workflowID WorkflowID, initialStep StepID) *ConversationState {
	return &ConversationState{
		ChatID:      chatID,
		WorkflowID:  workflowID,
		CurrentStep: initialStep,
		Fields:      make(map[string]any),
		Username:    username,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

// GetString retrieves a string field. A present field means the step
// that collects it has been passed; steps rely on that when rewinding.
func (s *ConversationState) GetString(key string) string {
	if v, ok := s.Fields[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

// Has reports whether a field has been collected.
func (s *ConversationState) Has(key string) bool {
	_, ok := s.Fields[key]
	return ok
}

// Set stores a collected field value.
func (s *ConversationState) Set(key string, value any) {
	if s.Fields == nil {
		s.Fields = make(map[string]any)
	}
	s.Fields[key] = value
}

// MergeFields merges step updates into the collected fields.
func (s *ConversationState) MergeFields(fields map[string]any) {
	if s.Fields == nil {
		s.Fields = make(map[string]any)
	}
	for k, v := range fields {
		s.Fields[k] = v
	}
}
