package store

import (
	"errors"

	"github.com/stridehq/stride/models"
)

// ErrGoalNotFound is returned when a goal id does not exist in the store.
// Callers in the chat pipeline treat this as "no safe target" and skip the
// mutation rather than failing the turn.
var ErrGoalNotFound = errors.New("goal not found")

// GoalStore defines the interface for goal persistence.
// It outlines the contract for managing goals, including CRUD operations,
// initialization, backup, restore, and resource cleanup.
type GoalStore interface {
	// Initialize configures the store with necessary parameters, such as
	// file path, data format, and any other backend-specific settings.
	// It should be called before any other store operations.
	Initialize(config map[string]string) error

	// CreateGoal adds a new goal to the store.
	// It returns the created goal, potentially with store-generated fields,
	// or an error if the operation fails.
	CreateGoal(goal models.Goal) (models.Goal, error)

	// GetGoal retrieves a goal by its unique identifier.
	// It returns ErrGoalNotFound if the goal does not exist.
	GetGoal(id string) (models.Goal, error)

	// ListGoals retrieves all goals owned by the given user, in creation order.
	ListGoals(userID string) ([]models.Goal, error)

	// UpdateGoal replaces the stored goal identified by id with the given
	// value. All mutation funnels through here so a caller can never persist
	// a goal with stale derived progress by partial writes.
	// It returns ErrGoalNotFound if the goal does not exist.
	UpdateGoal(id string, goal models.Goal) (models.Goal, error)

	// DeleteGoal removes a goal and, by ownership, all of its tasks and
	// subtasks. It returns ErrGoalNotFound if the goal does not exist.
	DeleteGoal(id string) error

	// DeleteAllGoals removes all goals from the store.
	// This is a destructive operation.
	DeleteAllGoals() error

	// Backup creates a backup of the current goal data to the destination path.
	Backup(destinationPath string) error

	// Restore replaces the current goal data with data from the source path.
	// This operation may be destructive to current data.
	Restore(sourcePath string) error

	// Close releases any resources held by the store, such as file locks or
	// database connections.
	Close() error
}
