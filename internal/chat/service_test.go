package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/stridehq/stride/models"
	"github.com/stridehq/stride/store"
	"github.com/stridehq/stride/types"
)

// stubGenerator returns a canned reply and records the prompts it saw.
type stubGenerator struct {
	reply      string
	err        error
	calls      int
	lastSystem string
}

func (g *stubGenerator) Generate(ctx context.Context, systemPrompt string, history []types.ChatMessage) (string, error) {
	g.calls++
	g.lastSystem = systemPrompt
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

const testUser = "user-1"

func seedGoal(t *testing.T, st store.GoalStore, title string, taskTitles ...string) models.Goal {
	t.Helper()
	goal := models.NewGoal(uuid.NewString(), title, testUser)
	for _, tt := range taskTitles {
		goal.Tasks = append(goal.Tasks, models.NewTask(uuid.NewString(), tt))
	}
	created, err := st.CreateGoal(*goal)
	if err != nil {
		t.Fatalf("seed goal: %v", err)
	}
	return created
}

func TestProcessTurn_CreatesGoalFromSuggestion(t *testing.T) {
	st := store.NewMemoryGoalStore()
	gen := &stubGenerator{
		reply: "Here are some tasks I suggest:\n1. Buy shoes\n2. Plan route\n3. Stretch daily",
	}
	svc := NewService(st, gen)

	resp, err := svc.ProcessTurn(context.Background(), types.ChatRequest{
		Message: "I want to run a marathon. It has always been a dream.",
		UserID:  testUser,
	})
	if err != nil {
		t.Fatalf("ProcessTurn() error = %v", err)
	}

	if resp.Type != types.ResponseTaskSuggestion {
		t.Errorf("Type = %s, want %s", resp.Type, types.ResponseTaskSuggestion)
	}
	if !resp.TasksCreated {
		t.Error("TasksCreated = false, want true")
	}
	if len(resp.RelatedTasks) != 3 {
		t.Errorf("len(RelatedTasks) = %d, want 3", len(resp.RelatedTasks))
	}

	goals, err := st.ListGoals(testUser)
	if err != nil {
		t.Fatalf("ListGoals() error = %v", err)
	}
	if len(goals) != 1 {
		t.Fatalf("len(goals) = %d, want 1", len(goals))
	}
	g := goals[0]
	if g.Title != "I want to run a marathon" {
		t.Errorf("goal title = %q, want first sentence of message", g.Title)
	}
	if len(g.Tasks) != 3 {
		t.Errorf("len(tasks) = %d, want 3", len(g.Tasks))
	}
	if g.Progress != 0 {
		t.Errorf("Progress = %d, want 0", g.Progress)
	}
	if g.TotalTimeEstimate != 90 {
		t.Errorf("TotalTimeEstimate = %d, want 90", g.TotalTimeEstimate)
	}
}

func TestProcessTurn_AppendsTasksToContextGoal(t *testing.T) {
	st := store.NewMemoryGoalStore()
	goal := seedGoal(t, st, "Run a Marathon", "Buy shoes")
	gen := &stubGenerator{reply: "I've added these tasks:\n1. Join a running club\n2. Sign up for a 10k"}
	svc := NewService(st, gen)

	resp, err := svc.ProcessTurn(context.Background(), types.ChatRequest{
		Message: "Help me take this further",
		GoalID:  goal.ID,
		UserID:  testUser,
	})
	if err != nil {
		t.Fatalf("ProcessTurn() error = %v", err)
	}

	if resp.Type != types.ResponseTaskCreation {
		t.Errorf("Type = %s, want %s", resp.Type, types.ResponseTaskCreation)
	}
	if !resp.TasksCreated || len(resp.RelatedTasks) != 2 {
		t.Errorf("TasksCreated = %v, RelatedTasks = %v", resp.TasksCreated, resp.RelatedTasks)
	}

	stored, _ := st.GetGoal(goal.ID)
	if len(stored.Tasks) != 3 {
		t.Errorf("len(tasks) = %d, want 3", len(stored.Tasks))
	}
}

func TestProcessTurn_CompletesTask(t *testing.T) {
	st := store.NewMemoryGoalStore()
	goal := seedGoal(t, st, "Run a Marathon", "Buy shoes", "Plan route")
	gen := &stubGenerator{reply: "Well done, keep it up!"}
	svc := NewService(st, gen)

	resp, err := svc.ProcessTurn(context.Background(), types.ChatRequest{
		Message: "mark the first task as done",
		GoalID:  goal.ID,
		UserID:  testUser,
	})
	if err != nil {
		t.Fatalf("ProcessTurn() error = %v", err)
	}

	if resp.Type != types.ResponseEncouragement {
		t.Errorf("Type = %s, want %s", resp.Type, types.ResponseEncouragement)
	}
	if len(resp.RelatedTasks) != 1 || resp.RelatedTasks[0] != goal.Tasks[0].ID {
		t.Errorf("RelatedTasks = %v, want [%s]", resp.RelatedTasks, goal.Tasks[0].ID)
	}
	if resp.TasksCreated {
		t.Error("TasksCreated = true, want false for a completion turn")
	}

	stored, _ := st.GetGoal(goal.ID)
	if !stored.Tasks[0].Completed {
		t.Error("first task not completed")
	}
	if stored.Progress != 50 {
		t.Errorf("Progress = %d, want 50", stored.Progress)
	}
}

func TestProcessTurn_RemovesTask(t *testing.T) {
	st := store.NewMemoryGoalStore()
	goal := seedGoal(t, st, "Run a Marathon", "Buy shoes", "Plan route", "Stretch daily")
	gen := &stubGenerator{reply: "Okay, anything else?"}
	svc := NewService(st, gen)

	resp, err := svc.ProcessTurn(context.Background(), types.ChatRequest{
		Message: "remove the stretch task",
		GoalID:  goal.ID,
		UserID:  testUser,
	})
	if err != nil {
		t.Fatalf("ProcessTurn() error = %v", err)
	}

	if len(resp.RelatedTasks) != 1 {
		t.Fatalf("RelatedTasks = %v, want one removed id", resp.RelatedTasks)
	}

	stored, _ := st.GetGoal(goal.ID)
	if len(stored.Tasks) != 2 {
		t.Errorf("len(tasks) = %d, want 2", len(stored.Tasks))
	}
	for _, task := range stored.Tasks {
		if task.Title == "Stretch daily" {
			t.Error("stretch task still present after removal")
		}
	}
}

func TestProcessTurn_GoalRemovalShortCircuits(t *testing.T) {
	st := store.NewMemoryGoalStore()
	seedGoal(t, st, "Run a Marathon", "Buy shoes")
	gen := &stubGenerator{reply: "should never be used"}
	svc := NewService(st, gen)

	resp, err := svc.ProcessTurn(context.Background(), types.ChatRequest{
		Message: "please delete my marathon goal",
		UserID:  testUser,
	})
	if err != nil {
		t.Fatalf("ProcessTurn() error = %v", err)
	}

	if gen.calls != 0 {
		t.Errorf("generator called %d times, want 0 on goal removal", gen.calls)
	}
	if !strings.Contains(resp.Message, "Run a Marathon") {
		t.Errorf("confirmation %q does not name the removed goal", resp.Message)
	}
	if resp.TasksCreated {
		t.Error("TasksCreated = true, want false")
	}

	goals, _ := st.ListGoals(testUser)
	if len(goals) != 0 {
		t.Errorf("len(goals) = %d, want 0 after removal", len(goals))
	}
}

func TestProcessTurn_UnresolvedRemovalFallsThrough(t *testing.T) {
	st := store.NewMemoryGoalStore()
	goal := seedGoal(t, st, "Run a Marathon", "Buy shoes", "Plan route")
	gen := &stubGenerator{reply: "I couldn't find that one."}
	svc := NewService(st, gen)

	resp, err := svc.ProcessTurn(context.Background(), types.ChatRequest{
		Message: "delete the underwater basket weaving task",
		GoalID:  goal.ID,
		UserID:  testUser,
	})
	if err != nil {
		t.Fatalf("ProcessTurn() error = %v", err)
	}

	if gen.calls != 1 {
		t.Errorf("generator called %d times, want 1", gen.calls)
	}
	if len(resp.RelatedTasks) != 0 {
		t.Errorf("RelatedTasks = %v, want empty when nothing resolved", resp.RelatedTasks)
	}

	stored, _ := st.GetGoal(goal.ID)
	if len(stored.Tasks) != 2 {
		t.Errorf("len(tasks) = %d, want 2 (nothing removed)", len(stored.Tasks))
	}
}

func TestProcessTurn_GeneratorErrorPropagates(t *testing.T) {
	st := store.NewMemoryGoalStore()
	wantErr := errors.New("provider unavailable")
	svc := NewService(st, &stubGenerator{err: wantErr})

	_, err := svc.ProcessTurn(context.Background(), types.ChatRequest{
		Message: "how am I doing?",
		UserID:  testUser,
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("ProcessTurn() error = %v, want wrapped %v", err, wantErr)
	}
}

func TestProcessTurn_EmptyExtractionKeepsTasksCreatedFalse(t *testing.T) {
	st := store.NewMemoryGoalStore()
	gen := &stubGenerator{reply: "I suggest we create a task list soon. What matters most to you?"}
	svc := NewService(st, gen)

	resp, err := svc.ProcessTurn(context.Background(), types.ChatRequest{
		Message: "I want to get organized",
		UserID:  testUser,
	})
	if err != nil {
		t.Fatalf("ProcessTurn() error = %v", err)
	}

	if resp.TasksCreated {
		t.Error("TasksCreated = true, want false when no tasks extracted")
	}
	goals, _ := st.ListGoals(testUser)
	if len(goals) != 0 {
		t.Errorf("len(goals) = %d, want 0", len(goals))
	}
}

func TestProcessTurn_CapturesRoadblock(t *testing.T) {
	st := store.NewMemoryGoalStore()
	goal := seedGoal(t, st, "Run a Marathon", "Buy shoes")
	gen := &stubGenerator{reply: "That's okay, let's find a smaller next step."}
	svc := NewService(st, gen)

	message := "I'm stuck, my knees hurt every time I run"
	if _, err := svc.ProcessTurn(context.Background(), types.ChatRequest{
		Message: message,
		GoalID:  goal.ID,
		UserID:  testUser,
	}); err != nil {
		t.Fatalf("ProcessTurn() error = %v", err)
	}

	stored, _ := st.GetGoal(goal.ID)
	if stored.Roadblock != message {
		t.Errorf("Roadblock = %q, want the user's message", stored.Roadblock)
	}
}

func TestProcessTurn_SystemPromptCarriesGoalContext(t *testing.T) {
	st := store.NewMemoryGoalStore()
	seedGoal(t, st, "Run a Marathon", "Buy shoes")
	gen := &stubGenerator{reply: "You're doing great."}
	svc := NewService(st, gen)

	if _, err := svc.ProcessTurn(context.Background(), types.ChatRequest{
		Message: "how is everything looking?",
		UserID:  testUser,
	}); err != nil {
		t.Fatalf("ProcessTurn() error = %v", err)
	}

	if !strings.Contains(gen.lastSystem, "Run a Marathon") {
		t.Error("system prompt missing goal title")
	}
	if !strings.Contains(gen.lastSystem, "Buy shoes") {
		t.Error("system prompt missing task title")
	}
}

// scriptedGenerator returns one canned reply per call, in order.
type scriptedGenerator struct {
	replies []string
	calls   int
}

func (g *scriptedGenerator) Generate(ctx context.Context, systemPrompt string, history []types.ChatMessage) (string, error) {
	if g.calls >= len(g.replies) {
		return "", errors.New("unexpected generator call")
	}
	reply := g.replies[g.calls]
	g.calls++
	return reply, nil
}

func TestProcessTurn_CondensesLongGoalTitle(t *testing.T) {
	st := store.NewMemoryGoalStore()
	gen := &scriptedGenerator{replies: []string{
		"Here are some tasks I suggest:\n1. Sort the desk\n2. Clear the shelves",
		"Reorganize the home office",
	}}
	svc := NewService(st, gen)

	_, err := svc.ProcessTurn(context.Background(), types.ChatRequest{
		Message: "I want to completely reorganize my entire home office and the garage. It's long overdue.",
		UserID:  testUser,
	})
	if err != nil {
		t.Fatalf("ProcessTurn() error = %v", err)
	}

	if gen.calls != 2 {
		t.Fatalf("generator called %d times, want 2 (reply + title)", gen.calls)
	}
	goals, _ := st.ListGoals(testUser)
	if len(goals) != 1 {
		t.Fatalf("len(goals) = %d, want 1", len(goals))
	}
	if goals[0].Title != "Reorganize the home office" {
		t.Errorf("goal title = %q, want the condensed title", goals[0].Title)
	}
}

func TestProcessTurn_ShortTitleSkipsCondensing(t *testing.T) {
	st := store.NewMemoryGoalStore()
	gen := &scriptedGenerator{replies: []string{
		"Here are some tasks I suggest:\n1. Buy shoes\n2. Plan route",
	}}
	svc := NewService(st, gen)

	if _, err := svc.ProcessTurn(context.Background(), types.ChatRequest{
		Message: "I want to run a marathon. It has always been a dream.",
		UserID:  testUser,
	}); err != nil {
		t.Fatalf("ProcessTurn() error = %v", err)
	}

	if gen.calls != 1 {
		t.Errorf("generator called %d times, want 1 when the first sentence fits", gen.calls)
	}
	goals, _ := st.ListGoals(testUser)
	if len(goals) != 1 || goals[0].Title != "I want to run a marathon" {
		t.Errorf("goals = %+v, want one goal titled with the first sentence", goals)
	}
}

func TestProcessTurn_EmptyMessageRejected(t *testing.T) {
	svc := NewService(store.NewMemoryGoalStore(), &stubGenerator{reply: "hi"})

	if _, err := svc.ProcessTurn(context.Background(), types.ChatRequest{
		Message: "   \n\t ",
		UserID:  testUser,
	}); err == nil {
		t.Error("ProcessTurn() with blank message should error")
	}
}
