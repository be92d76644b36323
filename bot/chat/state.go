package chat

import "time"

// ChatState is the in-flight workflow position of one conversation.
type ChatState struct {
	ChatID      string
	WorkflowID  WorkflowID
	CurrentStep StepID
	Data        map[string]any
	UpdatedAt   time.Time
}

// NewChatState creates a fresh state positioned at the workflow's initial step.
func NewChatState(chatID string, workflowID WorkflowID, initialStep StepID) *ChatState {
	return &ChatState{
		ChatID:      chatID,
		WorkflowID:  workflowID,
		CurrentStep: initialStep,
		Data:        make(map[string]any),
		UpdatedAt:   time.Now(),
	}
}

// GetString retrieves a string value from the state data.
func (s *ChatState) GetString(key string) string {
	if v, ok := s.Data[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

// Set stores a value in the state data.
func (s *ChatState) Set(key string, value any) {
	if s.Data == nil {
		s.Data = make(map[string]any)
	}
	s.Data[key] = value
}

// MergeData merges additional data into the state.
func (s *ChatState) MergeData(data map[string]any) {
	if s.Data == nil {
		s.Data = make(map[string]any)
	}
	for k, v := range data {
		s.Data[k] = v
	}
}
