package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/stridehq/stride/models"
)

// MemoryGoalStore implements GoalStore with an in-process map. It is the
// default backend for tests and for running the server without persistence.
type MemoryGoalStore struct {
	mu    sync.RWMutex
	goals map[string]models.Goal
}

// NewMemoryGoalStore creates an empty in-memory store.
func NewMemoryGoalStore() *MemoryGoalStore {
	return &MemoryGoalStore{
		goals: make(map[string]models.Goal),
	}
}

// Initialize is a no-op for the in-memory backend.
func (s *MemoryGoalStore) Initialize(config map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.goals == nil {
		s.goals = make(map[string]models.Goal)
	}
	return nil
}

func (s *MemoryGoalStore) CreateGoal(goal models.Goal) (models.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if goal.ID == "" {
		goal.ID = generateID()
	} else if _, exists := s.goals[goal.ID]; exists {
		return models.Goal{}, fmt.Errorf("goal with ID '%s' already exists", goal.ID)
	}

	if goal.CreatedAt.IsZero() {
		goal.CreatedAt = time.Now().UTC()
	}
	if goal.Tasks == nil {
		goal.Tasks = []models.Task{}
	}
	goal.RecalculateProgress()

	if err := models.ValidateStruct(goal); err != nil {
		return models.Goal{}, fmt.Errorf("validation failed for new goal: %w", err)
	}

	s.goals[goal.ID] = goal
	return goal, nil
}

func (s *MemoryGoalStore) GetGoal(id string) (models.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	goal, ok := s.goals[id]
	if !ok {
		return models.Goal{}, ErrGoalNotFound
	}
	return goal, nil
}

func (s *MemoryGoalStore) ListGoals(userID string) ([]models.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	goalList := make([]models.Goal, 0)
	for _, goal := range s.goals {
		if goal.UserID == userID {
			goalList = append(goalList, goal)
		}
	}
	sort.Slice(goalList, func(i, j int) bool {
		return goalList[i].CreatedAt.Before(goalList[j].CreatedAt)
	})
	return goalList, nil
}

func (s *MemoryGoalStore) UpdateGoal(id string, goal models.Goal) (models.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.goals[id]
	if !exists {
		return models.Goal{}, ErrGoalNotFound
	}

	goal.ID = existing.ID
	goal.UserID = existing.UserID
	goal.CreatedAt = existing.CreatedAt
	if goal.Tasks == nil {
		goal.Tasks = []models.Task{}
	}
	goal.RecalculateProgress()

	if err := models.ValidateStruct(goal); err != nil {
		return models.Goal{}, fmt.Errorf("validation failed for updated goal: %w", err)
	}

	s.goals[id] = goal
	return goal, nil
}

func (s *MemoryGoalStore) DeleteGoal(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.goals[id]; !exists {
		return ErrGoalNotFound
	}
	delete(s.goals, id)
	return nil
}

func (s *MemoryGoalStore) DeleteAllGoals() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals = make(map[string]models.Goal)
	return nil
}

// Backup is not supported by the in-memory backend.
func (s *MemoryGoalStore) Backup(destinationPath string) error {
	return fmt.Errorf("backup not supported by memory store")
}

// Restore is not supported by the in-memory backend.
func (s *MemoryGoalStore) Restore(sourcePath string) error {
	return fmt.Errorf("restore not supported by memory store")
}

func (s *MemoryGoalStore) Close() error {
	return nil
}
