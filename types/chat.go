package types

// ResponseType labels an assistant reply for client-side UI treatment.
// It is a coarse heuristic classification, not a semantic guarantee.
type ResponseType string

const (
	ResponseTaskSuggestion ResponseType = "task-suggestion"
	ResponseTaskCreation   ResponseType = "task-creation"
	ResponseEncouragement  ResponseType = "encouragement"
	ResponseQuestion       ResponseType = "question"
	ResponseGeneral        ResponseType = "general"
)

// ChatMessage is one turn of conversation history.
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"required"`
}

// ChatRequest is the payload for POST /api/chat.
type ChatRequest struct {
	Message string        `json:"message" validate:"required"`
	GoalID  string        `json:"goalId,omitempty" validate:"omitempty,uuid4"`
	UserID  string        `json:"userId" validate:"required"`
	History []ChatMessage `json:"history,omitempty" validate:"dive"`
}

// ChatResponse is the structured result of one chat turn.
type ChatResponse struct {
	Message      string       `json:"message"`
	Type         ResponseType `json:"type"`
	RelatedTasks []string     `json:"relatedTasks"`
	TasksCreated bool         `json:"tasksCreated"`
}
