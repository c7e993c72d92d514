package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stridehq/stride/models"
)

func newTestEngine() *Engine {
	n := 0
	return New(
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
		WithClock(func() time.Time {
			return time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
		}),
	)
}

func testGoal() *models.Goal {
	g := models.NewGoal("g1", "Run a Marathon", "user-1")
	g.Tasks = []models.Task{
		models.NewTask("t1", "Buy running shoes"),
		models.NewTask("t2", "Plan route"),
		models.NewTask("t3", "Stretch daily"),
	}
	g.RecalculateProgress()
	return g
}

func TestCompleteTask(t *testing.T) {
	e := newTestEngine()
	g := testGoal()

	if !e.CompleteTask(g, "t2") {
		t.Fatal("CompleteTask() = false, want true")
	}
	if !g.Tasks[1].Completed {
		t.Error("task t2 not marked completed")
	}
	if g.Progress != 33 {
		t.Errorf("Progress = %d, want 33", g.Progress)
	}

	// Completing again is a no-op that keeps progress consistent.
	if !e.CompleteTask(g, "t2") {
		t.Error("CompleteTask() on completed task = false, want true")
	}
	if g.Progress != 33 {
		t.Errorf("Progress after repeat = %d, want 33", g.Progress)
	}

	if e.CompleteTask(g, "missing") {
		t.Error("CompleteTask() on unknown id = true, want false")
	}
}

func TestRemoveTask(t *testing.T) {
	e := newTestEngine()
	g := testGoal()
	g.Tasks[0].Completed = true
	g.RecalculateProgress()

	if !e.RemoveTask(g, "t1") {
		t.Fatal("RemoveTask() = false, want true")
	}
	if len(g.Tasks) != 2 {
		t.Fatalf("len(Tasks) = %d, want 2", len(g.Tasks))
	}
	if g.Progress != 0 {
		t.Errorf("Progress = %d, want 0 after removing the only completed task", g.Progress)
	}

	// Removing twice is not an error condition, just a false return.
	if e.RemoveTask(g, "t1") {
		t.Error("RemoveTask() second call = true, want false")
	}
	if len(g.Tasks) != 2 {
		t.Errorf("len(Tasks) after repeat = %d, want 2", len(g.Tasks))
	}
}

func TestCompleteSubtaskRollsUp(t *testing.T) {
	e := newTestEngine()
	g := testGoal()
	g.Tasks[0].Subtasks = []models.Subtask{
		{ID: "s1", Title: "Research brands"},
		{ID: "s2", Title: "Visit store", Completed: true},
	}

	if !e.CompleteSubtask(g, "t1", "s1") {
		t.Fatal("CompleteSubtask() = false, want true")
	}
	if !g.Tasks[0].Completed {
		t.Error("task t1 should roll up to completed when all subtasks complete")
	}
	if g.Progress != 33 {
		t.Errorf("Progress = %d, want 33", g.Progress)
	}

	if e.CompleteSubtask(g, "t1", "missing") {
		t.Error("CompleteSubtask() on unknown subtask = true, want false")
	}
}

func TestEditTask_Complexity(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    models.Complexity
	}{
		{"urgent", "task 1 is urgent now", models.ComplexityHigh},
		{"moderate", "it's a moderate task", models.ComplexityMedium},
		{"not urgent", "the task is not urgent anymore", models.ComplexityLow},
		{"difficulty high", "this task is really challenging", models.ComplexityHigh},
		{"difficulty low", "it's a simple task", models.ComplexityLow},
		{"difficulty wins over priority", "urgent but easy task", models.ComplexityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine()
			g := testGoal()
			if !e.EditTask(g, "t1", tt.message) {
				t.Fatalf("EditTask(%q) = false, want true", tt.message)
			}
			if g.Tasks[0].Complexity != tt.want {
				t.Errorf("Complexity = %s, want %s", g.Tasks[0].Complexity, tt.want)
			}
		})
	}
}

func TestEditTask_TimeEstimate(t *testing.T) {
	e := newTestEngine()
	g := testGoal()

	if !e.EditTask(g, "t1", "that task should take 45 min") {
		t.Fatal("EditTask() = false, want true")
	}
	if g.Tasks[0].TimeEstimateMinutes != 45 {
		t.Errorf("TimeEstimateMinutes = %d, want 45", g.Tasks[0].TimeEstimateMinutes)
	}
}

func TestEditTask_DueDate(t *testing.T) {
	now := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		message string
		want    time.Time
	}{
		{"today", "make the task due today", now},
		{"tomorrow", "the task is due tomorrow", now.Add(24 * time.Hour)},
		{"next week", "push the task to next week", now.Add(7 * 24 * time.Hour)},
		{"today beats tomorrow", "due today not tomorrow, that task", now},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine()
			g := testGoal()
			if !e.EditTask(g, "t2", tt.message) {
				t.Fatalf("EditTask(%q) = false, want true", tt.message)
			}
			if g.Tasks[1].DueDate == nil || !g.Tasks[1].DueDate.Equal(tt.want) {
				t.Errorf("DueDate = %v, want %v", g.Tasks[1].DueDate, tt.want)
			}
		})
	}
}

func TestEditTask_Title(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"quoted after to", `rename task 1 to "Buy trail shoes"`, "Buy trail shoes"},
		{"quoted after as", `mark task 1 as 'Shoe shopping'`, "Shoe shopping"},
		{"rename unquoted", "rename the first task to buy trail shoes", "buy trail shoes"},
		{"call it", "call it shoe day", "shoe day"},
		{"make it", "make it a shopping trip", "a shopping trip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine()
			g := testGoal()
			if !e.EditTask(g, "t1", tt.message) {
				t.Fatalf("EditTask(%q) = false, want true", tt.message)
			}
			if g.Tasks[0].Title != tt.want {
				t.Errorf("Title = %q, want %q", g.Tasks[0].Title, tt.want)
			}
		})
	}
}

func TestEditTask_NoRecognizableEdit(t *testing.T) {
	e := newTestEngine()
	g := testGoal()
	if e.EditTask(g, "t1", "tell me more about this one") {
		t.Error("EditTask() with no parseable edit = true, want false")
	}
}

func TestAppendTasks(t *testing.T) {
	e := newTestEngine()
	g := testGoal()
	g.Tasks[0].Completed = true
	g.RecalculateProgress()

	ids := e.AppendTasks(g, []string{"Join a running club", "Sign up for a 10k"})
	if len(ids) != 2 {
		t.Fatalf("AppendTasks() returned %d ids, want 2", len(ids))
	}
	if len(g.Tasks) != 5 {
		t.Fatalf("len(Tasks) = %d, want 5", len(g.Tasks))
	}
	if g.TotalTimeEstimate != 60 {
		t.Errorf("TotalTimeEstimate = %d, want 60", g.TotalTimeEstimate)
	}
	// 1 of 5 complete.
	if g.Progress != 20 {
		t.Errorf("Progress = %d, want 20", g.Progress)
	}
}

func TestCreateGoal(t *testing.T) {
	e := newTestEngine()

	g := e.CreateGoal("I want to run a marathon. It has been a dream for years.", "user-1",
		[]string{"Buy shoes", "Plan route"})

	if g.Title != "I want to run a marathon" {
		t.Errorf("Title = %q, want first sentence", g.Title)
	}
	if g.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", g.UserID)
	}
	if len(g.Tasks) != 2 {
		t.Fatalf("len(Tasks) = %d, want 2", len(g.Tasks))
	}
	if g.Tasks[0].Title != "Buy shoes" || g.Tasks[1].Title != "Plan route" {
		t.Errorf("task titles = %q, %q", g.Tasks[0].Title, g.Tasks[1].Title)
	}
	if g.TotalTimeEstimate != 60 {
		t.Errorf("TotalTimeEstimate = %d, want 60", g.TotalTimeEstimate)
	}
	if g.Progress != 0 {
		t.Errorf("Progress = %d, want 0", g.Progress)
	}
}

func TestTitleFromMessage(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"first sentence", "Learn Spanish. Then move to Madrid.", "Learn Spanish"},
		{"newline ends sentence", "Learn Spanish\nfor my trip", "Learn Spanish"},
		{"no terminator", "Learn Spanish", "Learn Spanish"},
		{
			"long title truncated",
			"I want to completely reorganize my entire home office and garage this spring",
			"I want to completely reorganize my entire home...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TitleFromMessage(tt.message)
			if got != tt.want {
				t.Errorf("TitleFromMessage() = %q, want %q", got, tt.want)
			}
			if len(got) > 50 {
				t.Errorf("len = %d, want <= 50", len(got))
			}
		})
	}
}

// Progress always reflects round(100 * completed / total) as tasks complete
// one by one.
func TestProgressRoundTrip(t *testing.T) {
	e := newTestEngine()
	g := e.CreateGoal("Get fit this year.", "user-1",
		[]string{"a", "b", "c", "d", "e", "f"})

	want := []int{17, 33, 50, 67, 83, 100}
	for i, task := range g.Tasks {
		if !e.CompleteTask(g, task.ID) {
			t.Fatalf("CompleteTask(%s) = false", task.ID)
		}
		if g.Progress != want[i] {
			t.Errorf("Progress after %d completions = %d, want %d", i+1, g.Progress, want[i])
		}
	}
}

func TestApplyGoalPatch(t *testing.T) {
	e := newTestEngine()
	g := testGoal()
	g.Tasks[0].Completed = true

	title := "Finish the Marathon"
	roadblock := "my knees hurt every time I run"
	estimate := 120
	e.ApplyGoalPatch(g, models.GoalPatch{
		Title:             &title,
		Roadblock:         &roadblock,
		TotalTimeEstimate: &estimate,
	})

	if g.Title != title {
		t.Errorf("Title = %q, want %q", g.Title, title)
	}
	if g.Roadblock != roadblock {
		t.Errorf("Roadblock = %q, want %q", g.Roadblock, roadblock)
	}
	if g.TotalTimeEstimate != estimate {
		t.Errorf("TotalTimeEstimate = %d, want %d", g.TotalTimeEstimate, estimate)
	}
	// Progress is recomputed even when the patch touches no tasks.
	if g.Progress != 33 {
		t.Errorf("Progress = %d, want 33", g.Progress)
	}

	before := g.Title
	e.ApplyGoalPatch(g, models.GoalPatch{})
	if g.Title != before || g.Roadblock != roadblock {
		t.Error("empty patch must leave goal attributes untouched")
	}
}
