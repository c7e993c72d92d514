// Package engine applies conversational mutations to goals and tasks. It
// never talks to a store; callers load the goal, hand it in, and persist the
// result. Every mutation path re-rolls subtask completion and recomputes
// progress before returning.
package engine

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stridehq/stride/models"
)

// Engine mutates goals in response to parsed chat intent.
type Engine struct {
	newID func() string
	now   func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator overrides the identifier generator, mainly for tests.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// WithClock overrides the time source, mainly for tests.
func WithClock(fn func() time.Time) Option {
	return func(e *Engine) { e.now = fn }
}

// New returns an Engine with UUID identifiers and the wall clock.
func New(opts ...Option) *Engine {
	e := &Engine{
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CompleteTask marks the task done unconditionally. Completing an already
// complete task is a no-op that still recomputes progress. Returns false when
// the task is not on the goal.
func (e *Engine) CompleteTask(goal *models.Goal, taskID string) bool {
	task := findTask(goal, taskID)
	if task == nil {
		return false
	}
	task.Completed = true
	normalize(goal)
	return true
}

// RemoveTask deletes the task from the goal. Returns false when the task is
// not on the goal; progress is recomputed either way.
func (e *Engine) RemoveTask(goal *models.Goal, taskID string) bool {
	removed := false
	tasks := goal.Tasks[:0]
	for _, t := range goal.Tasks {
		if t.ID == taskID {
			removed = true
			continue
		}
		tasks = append(tasks, t)
	}
	goal.Tasks = tasks
	normalize(goal)
	return removed
}

// CompleteSubtask marks a subtask done and rolls completion up to its parent
// task when every sibling is complete.
func (e *Engine) CompleteSubtask(goal *models.Goal, taskID, subtaskID string) bool {
	task := findTask(goal, taskID)
	if task == nil {
		return false
	}
	found := false
	for i := range task.Subtasks {
		if task.Subtasks[i].ID == subtaskID {
			task.Subtasks[i].Completed = true
			found = true
			break
		}
	}
	if !found {
		return false
	}
	normalize(goal)
	return true
}

// EditTask parses attribute changes out of the message and applies them to
// the task. Returns false when the task is not on the goal or the message
// carried no recognizable edit.
func (e *Engine) EditTask(goal *models.Goal, taskID, message string) bool {
	task := findTask(goal, taskID)
	if task == nil {
		return false
	}
	patch := ParseTaskPatch(message, e.now())
	if patch.IsZero() {
		return false
	}
	applyPatch(task, patch)
	normalize(goal)
	return true
}

// AppendTasks adds shell tasks for the given titles to the goal and returns
// the new task IDs. The total time estimate grows by the default estimate per
// task added.
func (e *Engine) AppendTasks(goal *models.Goal, titles []string) []string {
	var ids []string
	for _, title := range titles {
		task := models.NewTask(e.newID(), title)
		task.TimeEstimateMinutes = defaultTaskEstimateMinutes
		goal.Tasks = append(goal.Tasks, task)
		ids = append(ids, task.ID)
	}
	goal.TotalTimeEstimate += defaultTaskEstimateMinutes * len(ids)
	normalize(goal)
	return ids
}

// CreateGoal builds a new goal from the user's message and a set of extracted
// task titles. The title is the first sentence of the message, truncated to
// the title limit with an ellipsis; tasks are created as shells and the total
// estimate assumes the default minutes per task.
func (e *Engine) CreateGoal(message, userID string, taskTitles []string) *models.Goal {
	goal := models.NewGoal(e.newID(), TitleFromMessage(message), userID)
	for _, title := range taskTitles {
		task := models.NewTask(e.newID(), title)
		task.TimeEstimateMinutes = defaultTaskEstimateMinutes
		goal.Tasks = append(goal.Tasks, task)
	}
	goal.TotalTimeEstimate = defaultTaskEstimateMinutes * len(goal.Tasks)
	normalize(goal)
	return goal
}

// ApplyGoalPatch applies the non-nil fields of the patch to the goal's own
// attributes. Task-level changes go through EditTask instead.
func (e *Engine) ApplyGoalPatch(goal *models.Goal, patch models.GoalPatch) {
	if patch.Title != nil {
		goal.Title = *patch.Title
	}
	if patch.Roadblock != nil {
		goal.Roadblock = *patch.Roadblock
	}
	if patch.AdditionalInfo != nil {
		goal.AdditionalInfo = *patch.AdditionalInfo
	}
	if patch.OverallSuggestions != nil {
		goal.OverallSuggestions = *patch.OverallSuggestions
	}
	if patch.TotalTimeEstimate != nil {
		goal.TotalTimeEstimate = *patch.TotalTimeEstimate
	}
	normalize(goal)
}

func applyPatch(task *models.Task, patch models.TaskPatch) {
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Complexity != nil {
		task.Complexity = *patch.Complexity
	}
	if patch.TimeEstimateMinutes != nil {
		task.TimeEstimateMinutes = *patch.TimeEstimateMinutes
	}
	if patch.DueDate != nil {
		task.DueDate = patch.DueDate
	}
}

func findTask(goal *models.Goal, taskID string) *models.Task {
	for i := range goal.Tasks {
		if goal.Tasks[i].ID == taskID {
			return &goal.Tasks[i]
		}
	}
	return nil
}

// normalize rolls subtask completion up into each task, then recomputes goal
// progress from task completion.
func normalize(goal *models.Goal) {
	for i := range goal.Tasks {
		goal.Tasks[i].RollUpCompletion()
	}
	goal.RecalculateProgress()
}

const defaultTaskEstimateMinutes = 30

// MaxTitleLength caps goal titles derived from user messages.
const MaxTitleLength = 50

var sentenceEnd = regexp.MustCompile(`[.!?\n]`)

// TitleFromMessage derives a goal title from the first sentence of the
// message, truncating at the length limit with an ellipsis.
func TitleFromMessage(message string) string {
	title := strings.TrimSpace(message)
	if loc := sentenceEnd.FindStringIndex(title); loc != nil {
		title = strings.TrimSpace(title[:loc[0]])
	}
	if len(title) > MaxTitleLength {
		title = strings.TrimSpace(title[:MaxTitleLength-3]) + "..."
	}
	return title
}
