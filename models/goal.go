package models

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Complexity represents the effort tier of a task.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// NotificationChannel identifies an outbound delivery channel for goal updates.
type NotificationChannel string

const (
	ChannelChat      NotificationChannel = "chat"
	ChannelEmail     NotificationChannel = "email"
	ChannelMessaging NotificationChannel = "messaging"
)

// Goal is a top-level user objective. It exclusively owns its Tasks; task
// order is meaningful and used for ordinal references ("the first task").
type Goal struct {
	ID        string    `json:"id" validate:"required,uuid4"`
	Title     string    `json:"title" validate:"required,min=1,max=255"`
	UserID    string    `json:"userId" validate:"required"`
	CreatedAt time.Time `json:"createdAt" validate:"required"`
	Tasks     []Task    `json:"tasks" validate:"dive"`
	// Progress is derived: round(100 * completed / total), 0 when no tasks.
	// Never set directly by clients; RecalculateProgress is the only writer.
	Progress             int                   `json:"progress" validate:"min=0,max=100"`
	Roadblock            string                `json:"roadblock,omitempty"`
	TotalTimeEstimate    int                   `json:"totalTimeEstimate,omitempty" validate:"omitempty,min=0"`
	TimeConstraint       int                   `json:"timeConstraint,omitempty" validate:"omitempty,min=0"`
	AdditionalInfo       string                `json:"additionalInfo,omitempty"`
	OverallSuggestions   string                `json:"overallSuggestions,omitempty"`
	NotificationChannels []NotificationChannel `json:"notificationChannels,omitempty" validate:"dive,oneof=chat email messaging"`
}

// Task is an actionable unit under a Goal. It exclusively owns its Subtasks.
type Task struct {
	ID                  string     `json:"id" validate:"required,uuid4"`
	Title               string     `json:"title" validate:"required,min=1,max=255"`
	Completed           bool       `json:"completed"`
	TimeEstimateMinutes int        `json:"timeEstimateMinutes,omitempty" validate:"omitempty,min=0"`
	Complexity          Complexity `json:"complexity,omitempty" validate:"omitempty,oneof=low medium high"`
	Context             string     `json:"context,omitempty"`
	DueDate             *time.Time `json:"dueDate,omitempty"`
	OnCalendar          bool       `json:"onCalendar,omitempty"`
	Reminder            bool       `json:"reminder,omitempty"`
	ReminderTime        *time.Time `json:"reminderTime,omitempty"`
	Subtasks            []Subtask  `json:"subtasks" validate:"dive"`
}

// Subtask is the smallest actionable unit.
type Subtask struct {
	ID                  string `json:"id" validate:"required,uuid4"`
	Title               string `json:"title" validate:"required,min=1,max=255"`
	Completed           bool   `json:"completed"`
	TimeEstimateMinutes int    `json:"timeEstimateMinutes,omitempty" validate:"omitempty,min=0"`
	Context             string `json:"context,omitempty"`
}

// GoalList represents a collection of goals as persisted on disk.
type GoalList struct {
	Goals      []Goal `json:"goals" validate:"dive"`
	TotalCount int    `json:"totalCount"`
}

// TaskPatch describes a partial update to a Task. Nil fields are left alone.
type TaskPatch struct {
	Title               *string
	Completed           *bool
	TimeEstimateMinutes *int
	Complexity          *Complexity
	Context             *string
	DueDate             *time.Time
}

// IsZero reports whether the patch changes nothing.
func (p TaskPatch) IsZero() bool {
	return p.Title == nil && p.Completed == nil && p.TimeEstimateMinutes == nil &&
		p.Complexity == nil && p.Context == nil && p.DueDate == nil
}

// GoalPatch describes a partial update to a Goal's own attributes.
type GoalPatch struct {
	Title              *string
	Roadblock          *string
	AdditionalInfo     *string
	OverallSuggestions *string
	TotalTimeEstimate  *int
}

// RecalculateProgress recomputes the derived progress percentage from the
// current task set. Every mutation path that changes tasks must call this
// before persisting; there is no code path allowed to leave Progress stale.
func (g *Goal) RecalculateProgress() {
	if len(g.Tasks) == 0 {
		g.Progress = 0
		return
	}
	completed := 0
	for _, t := range g.Tasks {
		if t.Completed {
			completed++
		}
	}
	g.Progress = int(math.Round(100 * float64(completed) / float64(len(g.Tasks))))
}

// RollUpCompletion marks the task complete when every subtask is complete.
// The roll-up is one-directional: completing the task directly does not
// touch subtask flags.
func (t *Task) RollUpCompletion() {
	if len(t.Subtasks) == 0 {
		return
	}
	for _, st := range t.Subtasks {
		if !st.Completed {
			return
		}
	}
	t.Completed = true
}

// NewGoal creates a goal shell with the given identity and owner.
func NewGoal(id, title, userID string) *Goal {
	return &Goal{
		ID:        id,
		Title:     title,
		UserID:    userID,
		CreatedAt: time.Now(),
		Tasks:     []Task{},
	}
}

// NewTask creates a task shell with no subtasks.
func NewTask(id, title string) Task {
	return Task{
		ID:       id,
		Title:    title,
		Subtasks: []Subtask{},
	}
}

// global validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidateStruct performs validation on any struct that has validation tags.
func ValidateStruct(s interface{}) error {
	if validate == nil {
		validate = validator.New()
	}
	err := validate.Struct(s)
	if err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMessages []string
		for _, e := range validationErrors {
			errorMessages = append(errorMessages, fmt.Sprintf("Validation failed on field '%s': rule '%s' (value: '%v')", e.StructNamespace(), e.Tag(), e.Value()))
		}
		return fmt.Errorf("%s", strings.Join(errorMessages, "; "))
	}
	return nil
}
