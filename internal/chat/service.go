// Package chat orchestrates one conversational turn: it builds goal context,
// invokes the text-generation service, runs intent detection and entity
// resolution over the user message, applies mutations, and shapes the
// structured response.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stridehq/stride/internal/classify"
	"github.com/stridehq/stride/internal/engine"
	"github.com/stridehq/stride/internal/extract"
	"github.com/stridehq/stride/internal/intent"
	"github.com/stridehq/stride/internal/resolve"
	"github.com/stridehq/stride/models"
	"github.com/stridehq/stride/prompts"
	"github.com/stridehq/stride/store"
	"github.com/stridehq/stride/types"
)

// Service processes chat turns against a goal store and a text generator.
// Each turn is a single sequential unit of work; the generator call is the
// only suspension point. Concurrent turns on the same goal race with
// last-write-wins semantics, which the storage layer accepts.
type Service struct {
	store        store.GoalStore
	generator    Generator
	engine       *engine.Engine
	templatesDir string
}

// Generator is the text-generation collaborator. Provider errors propagate to
// the caller untouched; the service never retries.
type Generator interface {
	Generate(ctx context.Context, systemPrompt string, history []types.ChatMessage) (string, error)
}

// Option configures a Service.
type Option func(*Service)

// WithTemplatesDir points prompt loading at a custom templates directory.
func WithTemplatesDir(dir string) Option {
	return func(s *Service) { s.templatesDir = dir }
}

// WithEngine overrides the mutation engine, mainly for tests that need
// deterministic identifiers.
func WithEngine(e *engine.Engine) Option {
	return func(s *Service) { s.engine = e }
}

// NewService creates a chat service.
func NewService(st store.GoalStore, gen Generator, opts ...Option) *Service {
	s := &Service{
		store:     st,
		generator: gen,
		engine:    engine.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// roadblockKeywords flag a message that describes being stuck on a goal.
var roadblockKeywords = []string{"stuck", "blocked", "struggling", "can't seem to", "roadblock"}

// ProcessTurn runs one chat turn. Generator failures propagate; mutation
// failures from unresolved entities skip that sub-step and the turn still
// completes with the generated reply.
func (s *Service) ProcessTurn(ctx context.Context, req types.ChatRequest) (types.ChatResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return types.ChatResponse{}, fmt.Errorf("empty message")
	}

	history := append(append([]types.ChatMessage{}, req.History...),
		types.ChatMessage{Role: "user", Content: message})

	contextGoal, goals, err := s.loadContext(req)
	if err != nil {
		return types.ChatResponse{}, err
	}

	createIntent := intent.DetectCreateGoal(message)

	// Goal removal short-circuits the turn: no generation, just an immediate
	// confirmation once the target resolves.
	if intent.DetectRemoveGoal(message) {
		if resp, ok, err := s.removeGoal(message, goals); err != nil {
			return types.ChatResponse{}, err
		} else if ok {
			return resp, nil
		}
	}

	systemPrompt, err := s.buildSystemPrompt(contextGoal, goals)
	if err != nil {
		return types.ChatResponse{}, err
	}

	reply, err := s.generator.Generate(ctx, systemPrompt, history)
	if err != nil {
		return types.ChatResponse{}, fmt.Errorf("generate reply: %w", err)
	}

	responseType := classify.Response(reply)
	var relatedTasks []string
	tasksCreated := false

	if target := s.targetGoal(message, contextGoal, goals); target != nil {
		s.captureRoadblock(target, message)

		switch {
		case intent.DetectRemoveTask(message):
			relatedTasks = s.removeTask(message, target)
		case intent.DetectEditTask(message):
			relatedTasks = s.editTask(message, target)
		}
	}

	if impliesNewTasks(responseType) && (createIntent || contextGoal != nil) {
		titles := extract.TaskTitles(reply)
		if len(titles) > 0 {
			ids, err := s.applyNewTasks(ctx, req, message, contextGoal, titles)
			if err != nil {
				return types.ChatResponse{}, err
			}
			relatedTasks = append(relatedTasks, ids...)
			tasksCreated = len(ids) > 0
		}
	}

	return types.ChatResponse{
		Message:      reply,
		Type:         responseType,
		RelatedTasks: relatedTasks,
		TasksCreated: tasksCreated,
	}, nil
}

// loadContext fetches the specific goal when an id is given, otherwise the
// user's full goal collection. An unknown goal id degrades to list context so
// the turn can still complete.
func (s *Service) loadContext(req types.ChatRequest) (*models.Goal, []models.Goal, error) {
	if req.GoalID != "" {
		goal, err := s.store.GetGoal(req.GoalID)
		if err == nil {
			return &goal, []models.Goal{goal}, nil
		}
		if !errors.Is(err, store.ErrGoalNotFound) {
			return nil, nil, fmt.Errorf("load goal: %w", err)
		}
	}
	goals, err := s.store.ListGoals(req.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("list goals: %w", err)
	}
	return nil, goals, nil
}

// targetGoal picks the goal that task-level mutations apply to: the explicit
// context goal when present, otherwise the best resolver match from the
// user's collection.
func (s *Service) targetGoal(message string, contextGoal *models.Goal, goals []models.Goal) *models.Goal {
	if contextGoal != nil {
		return contextGoal
	}
	match, ok := resolve.Goal(message, goalCandidates(goals))
	if !ok {
		return nil
	}
	for i := range goals {
		if goals[i].ID == match.ID {
			return &goals[i]
		}
	}
	return nil
}

// removeGoal resolves and deletes the referenced goal, returning the
// short-circuit confirmation. An unresolved target reports ok=false so the
// turn falls through to normal processing.
func (s *Service) removeGoal(message string, goals []models.Goal) (types.ChatResponse, bool, error) {
	match, ok := resolve.Goal(message, goalCandidates(goals))
	if !ok {
		return types.ChatResponse{}, false, nil
	}
	if err := s.store.DeleteGoal(match.ID); err != nil {
		if errors.Is(err, store.ErrGoalNotFound) {
			return types.ChatResponse{}, false, nil
		}
		return types.ChatResponse{}, false, fmt.Errorf("delete goal: %w", err)
	}
	return types.ChatResponse{
		Message: fmt.Sprintf("Done. I've removed the goal %q and all of its tasks.", match.Title),
		Type:    types.ResponseGeneral,
	}, true, nil
}

func (s *Service) removeTask(message string, goal *models.Goal) []string {
	match, ok := resolve.Task(message, taskCandidates(goal.Tasks))
	if !ok {
		return nil
	}
	if !s.engine.RemoveTask(goal, match.ID) {
		return nil
	}
	if err := s.persist(goal); err != nil {
		return nil
	}
	return []string{match.ID}
}

func (s *Service) editTask(message string, goal *models.Goal) []string {
	match, ok := resolve.Task(message, taskCandidates(goal.Tasks))
	if !ok {
		return nil
	}
	applied := false
	if intent.DetectCompleteTask(message) {
		applied = s.engine.CompleteTask(goal, match.ID)
	} else {
		applied = s.engine.EditTask(goal, match.ID, message)
	}
	if !applied {
		return nil
	}
	if err := s.persist(goal); err != nil {
		return nil
	}
	return []string{match.ID}
}

// applyNewTasks either appends extracted tasks to the context goal or creates
// a brand-new goal from the message and titles.
func (s *Service) applyNewTasks(ctx context.Context, req types.ChatRequest, message string, contextGoal *models.Goal, titles []string) ([]string, error) {
	if contextGoal != nil {
		ids := s.engine.AppendTasks(contextGoal, titles)
		if err := s.persist(contextGoal); err != nil {
			return nil, err
		}
		return ids, nil
	}

	goal := s.engine.CreateGoal(message, req.UserID, titles)
	if strings.HasSuffix(goal.Title, "...") {
		if title, ok := s.condenseTitle(ctx, message); ok {
			s.engine.ApplyGoalPatch(goal, models.GoalPatch{Title: &title})
		}
	}
	created, err := s.store.CreateGoal(*goal)
	if err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}
	ids := make([]string, 0, len(created.Tasks))
	for _, t := range created.Tasks {
		ids = append(ids, t.ID)
	}
	return ids, nil
}

// condenseTitle asks the generator for a short goal title when the first
// sentence of the message was too long to use verbatim. Best effort: any
// failure or oversized reply keeps the truncated title.
func (s *Service) condenseTitle(ctx context.Context, message string) (string, bool) {
	prompt, err := prompts.GetPrompt(prompts.KeyTitleFromGoal, s.templatesDir)
	if err != nil {
		return "", false
	}
	title, err := s.generator.Generate(ctx, prompt, []types.ChatMessage{{Role: "user", Content: message}})
	if err != nil {
		return "", false
	}
	title = strings.TrimSpace(strings.Trim(strings.TrimSpace(title), `"`))
	if title == "" || len(title) > engine.MaxTitleLength {
		return "", false
	}
	return title, true
}

// captureRoadblock records the user's own words on the goal when the message
// reads as being stuck. Best effort; persistence happens with the rest of the
// turn's mutations or on its own if nothing else changed.
func (s *Service) captureRoadblock(goal *models.Goal, message string) {
	lower := strings.ToLower(message)
	for _, kw := range roadblockKeywords {
		if strings.Contains(lower, kw) {
			s.engine.ApplyGoalPatch(goal, models.GoalPatch{Roadblock: &message})
			_ = s.persist(goal)
			return
		}
	}
}

func (s *Service) persist(goal *models.Goal) error {
	updated, err := s.store.UpdateGoal(goal.ID, *goal)
	if err != nil {
		return err
	}
	*goal = updated
	return nil
}

// buildSystemPrompt composes the coach instruction with a rendering of the
// goal context.
func (s *Service) buildSystemPrompt(contextGoal *models.Goal, goals []models.Goal) (string, error) {
	base, err := prompts.GetPrompt(prompts.KeyCoach, s.templatesDir)
	if err != nil {
		return "", fmt.Errorf("load prompt: %w", err)
	}

	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\n<goal_context>\n")
	switch {
	case contextGoal != nil:
		writeGoalContext(&b, *contextGoal)
	case len(goals) > 0:
		for _, g := range goals {
			writeGoalContext(&b, g)
		}
	default:
		b.WriteString("The user has no goals yet.\n")
	}
	b.WriteString("</goal_context>")
	return b.String(), nil
}

func writeGoalContext(b *strings.Builder, g models.Goal) {
	fmt.Fprintf(b, "Goal: %s (progress %d%%)\n", g.Title, g.Progress)
	if g.Roadblock != "" {
		fmt.Fprintf(b, "  Roadblock: %s\n", g.Roadblock)
	}
	for i, t := range g.Tasks {
		status := "open"
		if t.Completed {
			status = "done"
		}
		fmt.Fprintf(b, "  %d. [%s] %s\n", i+1, status, t.Title)
	}
}

func impliesNewTasks(rt types.ResponseType) bool {
	return rt == types.ResponseTaskSuggestion || rt == types.ResponseTaskCreation
}

func goalCandidates(goals []models.Goal) []resolve.Candidate {
	out := make([]resolve.Candidate, 0, len(goals))
	for _, g := range goals {
		out = append(out, resolve.Candidate{ID: g.ID, Title: g.Title})
	}
	return out
}

func taskCandidates(tasks []models.Task) []resolve.Candidate {
	out := make([]resolve.Candidate, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, resolve.Candidate{ID: t.ID, Title: t.Title})
	}
	return out
}
