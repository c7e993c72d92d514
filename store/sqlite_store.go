package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/stridehq/stride/models"
	_ "modernc.org/sqlite"
)

// SQLiteGoalStore implements GoalStore using SQLite for persistence.
// The task tree is stored as a JSON column; goals are the unit of ownership
// and every mutation replaces the whole document, matching the last-write-wins
// semantics the chat pipeline assumes.
type SQLiteGoalStore struct {
	db *sql.DB
}

// NewSQLiteGoalStore creates a new SQLite-backed goal store.
// basePath ":memory:" opens an in-memory database.
func NewSQLiteGoalStore(basePath string) (*SQLiteGoalStore, error) {
	var dbPath string
	if basePath == ":memory:" {
		dbPath = ":memory:"
	} else {
		dbPath = filepath.Join(basePath, "goals.db")

		if err := os.MkdirAll(basePath, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// An in-memory database exists per connection; a pooled second connection
	// would see an empty schema.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	store := &SQLiteGoalStore{db: db}

	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return store, nil
}

// initSchema creates the database tables if they don't exist.
func (s *SQLiteGoalStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS goals (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		created_at TEXT NOT NULL,
		progress INTEGER NOT NULL DEFAULT 0,
		roadblock TEXT DEFAULT '',
		total_time_estimate INTEGER DEFAULT 0,
		time_constraint INTEGER DEFAULT 0,
		additional_info TEXT DEFAULT '',
		overall_suggestions TEXT DEFAULT '',
		notification_channels TEXT,      -- JSON array of channel names
		tasks TEXT NOT NULL              -- JSON-encoded task tree
	);

	CREATE INDEX IF NOT EXISTS idx_goals_user ON goals(user_id, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Initialize is a no-op; the schema is created in NewSQLiteGoalStore.
func (s *SQLiteGoalStore) Initialize(config map[string]string) error {
	return nil
}

func (s *SQLiteGoalStore) CreateGoal(goal models.Goal) (models.Goal, error) {
	if goal.ID == "" {
		goal.ID = generateID()
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

	tasksJSON, err := json.Marshal(goal.Tasks)
	if err != nil {
		return models.Goal{}, fmt.Errorf("marshal tasks: %w", err)
	}
	channelsJSON, _ := json.Marshal(goal.NotificationChannels)

	_, err = s.db.Exec(`
		INSERT INTO goals (
			id, user_id, title, created_at, progress,
			roadblock, total_time_estimate, time_constraint,
			additional_info, overall_suggestions, notification_channels, tasks
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, goal.ID, goal.UserID, goal.Title, goal.CreatedAt.Format(time.RFC3339Nano), goal.Progress,
		goal.Roadblock, goal.TotalTimeEstimate, goal.TimeConstraint,
		goal.AdditionalInfo, goal.OverallSuggestions, string(channelsJSON), string(tasksJSON))
	if err != nil {
		return models.Goal{}, fmt.Errorf("insert goal %s: %w", goal.Title, err)
	}

	return goal, nil
}

func (s *SQLiteGoalStore) GetGoal(id string) (models.Goal, error) {
	row := s.db.QueryRow(`
		SELECT id, user_id, title, created_at, progress,
		       roadblock, total_time_estimate, time_constraint,
		       additional_info, overall_suggestions, notification_channels, tasks
		FROM goals WHERE id = ?
	`, id)

	goal, err := scanGoal(row)
	if err == sql.ErrNoRows {
		return models.Goal{}, ErrGoalNotFound
	}
	if err != nil {
		return models.Goal{}, fmt.Errorf("get goal %s: %w", id, err)
	}
	return goal, nil
}

func (s *SQLiteGoalStore) ListGoals(userID string) ([]models.Goal, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, title, created_at, progress,
		       roadblock, total_time_estimate, time_constraint,
		       additional_info, overall_suggestions, notification_channels, tasks
		FROM goals WHERE user_id = ? ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals for %s: %w", userID, err)
	}
	defer func() { _ = rows.Close() }()

	goalList := make([]models.Goal, 0)
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goalList = append(goalList, goal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return goalList, nil
}

func (s *SQLiteGoalStore) UpdateGoal(id string, goal models.Goal) (models.Goal, error) {
	existing, err := s.GetGoal(id)
	if err != nil {
		return models.Goal{}, err
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

	tasksJSON, err := json.Marshal(goal.Tasks)
	if err != nil {
		return models.Goal{}, fmt.Errorf("marshal tasks: %w", err)
	}
	channelsJSON, _ := json.Marshal(goal.NotificationChannels)

	_, err = s.db.Exec(`
		UPDATE goals SET title = ?, progress = ?, roadblock = ?,
			total_time_estimate = ?, time_constraint = ?,
			additional_info = ?, overall_suggestions = ?,
			notification_channels = ?, tasks = ?
		WHERE id = ?
	`, goal.Title, goal.Progress, goal.Roadblock,
		goal.TotalTimeEstimate, goal.TimeConstraint,
		goal.AdditionalInfo, goal.OverallSuggestions,
		string(channelsJSON), string(tasksJSON), id)
	if err != nil {
		return models.Goal{}, fmt.Errorf("update goal %s: %w", id, err)
	}

	return goal, nil
}

func (s *SQLiteGoalStore) DeleteGoal(id string) error {
	res, err := s.db.Exec(`DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete goal %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete goal %s: %w", id, err)
	}
	if affected == 0 {
		return ErrGoalNotFound
	}
	return nil
}

func (s *SQLiteGoalStore) DeleteAllGoals() error {
	if _, err := s.db.Exec(`DELETE FROM goals`); err != nil {
		return fmt.Errorf("delete all goals: %w", err)
	}
	return nil
}

// Backup copies the serialized goal set to a JSON file at destinationPath.
func (s *SQLiteGoalStore) Backup(destinationPath string) error {
	rows, err := s.db.Query(`SELECT user_id FROM goals GROUP BY user_id`)
	if err != nil {
		return fmt.Errorf("backup: list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return fmt.Errorf("backup: scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("backup: iterate users: %w", err)
	}

	all := models.GoalList{Goals: []models.Goal{}}
	for _, u := range users {
		goals, err := s.ListGoals(u)
		if err != nil {
			return err
		}
		all.Goals = append(all.Goals, goals...)
	}
	all.TotalCount = len(all.Goals)

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("backup: marshal goals: %w", err)
	}
	return os.WriteFile(destinationPath, data, 0o644)
}

// Restore replaces all stored goals with the JSON backup at sourcePath.
func (s *SQLiteGoalStore) Restore(sourcePath string) error {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("restore: read backup: %w", err)
	}

	var all models.GoalList
	if err := json.Unmarshal(data, &all); err != nil {
		return fmt.Errorf("restore: unmarshal backup: %w", err)
	}

	if err := s.DeleteAllGoals(); err != nil {
		return err
	}
	for _, goal := range all.Goals {
		if _, err := s.CreateGoal(goal); err != nil {
			return fmt.Errorf("restore: recreate goal %s: %w", goal.ID, err)
		}
	}
	return nil
}

func (s *SQLiteGoalStore) Close() error {
	return s.db.Close()
}

// rowScanner abstracts sql.Row and sql.Rows for goal scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanGoal(row rowScanner) (models.Goal, error) {
	var goal models.Goal
	var createdAt, channelsJSON, tasksJSON string

	err := row.Scan(&goal.ID, &goal.UserID, &goal.Title, &createdAt, &goal.Progress,
		&goal.Roadblock, &goal.TotalTimeEstimate, &goal.TimeConstraint,
		&goal.AdditionalInfo, &goal.OverallSuggestions, &channelsJSON, &tasksJSON)
	if err != nil {
		return models.Goal{}, err
	}

	goal.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return models.Goal{}, fmt.Errorf("parse created_at: %w", err)
	}
	if channelsJSON != "" && channelsJSON != "null" {
		if err := json.Unmarshal([]byte(channelsJSON), &goal.NotificationChannels); err != nil {
			return models.Goal{}, fmt.Errorf("unmarshal notification channels: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(tasksJSON), &goal.Tasks); err != nil {
		return models.Goal{}, fmt.Errorf("unmarshal tasks: %w", err)
	}
	if goal.Tasks == nil {
		goal.Tasks = []models.Task{}
	}
	return goal, nil
}
