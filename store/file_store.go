package store

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/stridehq/stride/models"
	"github.com/stridehq/stride/types"
	yaml "gopkg.in/yaml.v3"
)

const (
	defaultDataFile   = "goals.json" // Default filename if only format implies extension
	dataFileKey       = "dataFile"
	dataFileFormatKey = "dataFileFormat"
	defaultDataFormat = "json"
	formatJSON        = "json"
	formatYAML        = "yaml"
	formatTOML        = "toml"
	checksumSuffix    = ".checksum"
)

// FileGoalStore implements the GoalStore interface using a file backend.
// It supports JSON, YAML, and TOML formats and uses file-level locking.
type FileGoalStore struct {
	filePath string
	goals    map[string]models.Goal
	flk      *flock.Flock
	format   string // "json", "yaml", or "toml"
}

// NewFileGoalStore creates a new instance of FileGoalStore.
// It does not initialize the store; Initialize must be called separately.
func NewFileGoalStore() *FileGoalStore {
	return &FileGoalStore{
		goals: make(map[string]models.Goal),
	}
}

// Initialize configures the FileGoalStore.
// It expects a 'dataFile' key in the config map specifying the path to the data
// file, defaulting to 'goals.json' in the current working directory. It loads
// existing goals from the file if it exists and establishes a file lock.
func (s *FileGoalStore) Initialize(config map[string]string) error {
	if val, ok := config[dataFileKey]; ok && val != "" {
		s.filePath = val
	} else {
		s.filePath = defaultDataFile
	}

	if val, ok := config[dataFileFormatKey]; ok && val != "" {
		formatLower := strings.ToLower(val)
		switch formatLower {
		case formatJSON, formatYAML, formatTOML:
			s.format = formatLower
		default:
			return fmt.Errorf("unsupported dataFileFormat: %s. Supported formats are json, yaml, toml", val)
		}
	} else {
		s.format = defaultDataFormat
	}

	// If filePath was the default and format is not JSON, adjust the default
	// extension. Users providing a full path are responsible for its extension.
	if s.filePath == defaultDataFile && s.format != formatJSON {
		ext := filepath.Ext(s.filePath)
		s.filePath = strings.TrimSuffix(s.filePath, ext) + "." + s.format
	}

	dir := filepath.Dir(s.filePath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	// flock uses the file path itself for locking
	s.flk = flock.New(s.filePath)

	locked, err := s.flk.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire initial lock for %s: %w", s.filePath, err)
	}
	if !locked {
		// Another process holds the lock; block until initialization can complete.
		if err := s.flk.Lock(); err != nil {
			return fmt.Errorf("failed to acquire blocking initial lock for %s: %w", s.filePath, err)
		}
	}
	defer func() { _ = s.flk.Unlock() }()

	s.goals = make(map[string]models.Goal)
	return s.loadGoalsFromFileInternal()
}

// calculateChecksum computes the SHA256 checksum of the given data.
func calculateChecksum(data []byte) string {
	hasher := sha256.New()
	hasher.Write(data) // Write never returns an error
	return hex.EncodeToString(hasher.Sum(nil))
}

// loadGoalsFromFileInternal reads goals from the file, verifies checksum, and
// unmarshals. Assumes the file lock is held by the caller.
func (s *FileGoalStore) loadGoalsFromFileInternal() error {
	checksumFilePath := s.filePath + checksumSuffix

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.goals = make(map[string]models.Goal)
			_ = os.Remove(checksumFilePath)
			if f, createErr := os.OpenFile(s.filePath, os.O_CREATE|os.O_RDWR, 0o644); createErr != nil {
				return fmt.Errorf("failed to create data file %s: %w", s.filePath, createErr)
			} else {
				_ = f.Close()
			}
			if err := os.WriteFile(checksumFilePath, []byte(calculateChecksum([]byte{})), 0o644); err != nil {
				fmt.Printf("Warning: could not write initial checksum file %s: %v\n", checksumFilePath, err)
			}
			return nil
		}
		return fmt.Errorf("failed to read data file %s: %w", s.filePath, err)
	}

	if _, err := os.Stat(checksumFilePath); err == nil {
		expectedChecksumBytes, readErr := os.ReadFile(checksumFilePath)
		if readErr != nil {
			return fmt.Errorf("failed to read checksum file %s: %w - data file might be corrupt or tampered", checksumFilePath, readErr)
		}
		expectedChecksum := strings.TrimSpace(string(expectedChecksumBytes))
		actualChecksum := calculateChecksum(data)

		if actualChecksum != expectedChecksum {
			return types.NewStoreError("CHECKSUM_MISMATCH",
				fmt.Sprintf("checksum mismatch for %s: file is corrupt or tampered", s.filePath),
				map[string]interface{}{"expected": expectedChecksum, "actual": actualChecksum})
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("error checking checksum file %s: %w", checksumFilePath, err)
	}
	// If the checksum file does not exist but data does, this could be data
	// from before checksums. Allow loading; the next save creates one.

	if len(data) == 0 {
		currentChecksum := calculateChecksum([]byte{})
		_ = os.WriteFile(checksumFilePath, []byte(currentChecksum), 0o644) // best effort
		s.goals = make(map[string]models.Goal)
		return nil
	}

	var goalList models.GoalList
	switch s.format {
	case formatJSON:
		if err := json.Unmarshal(data, &goalList); err != nil {
			return fmt.Errorf("failed to unmarshal JSON from %s (checksum may have passed): %w", s.filePath, err)
		}
	case formatYAML:
		if err := yaml.Unmarshal(data, &goalList); err != nil {
			return fmt.Errorf("failed to unmarshal YAML from %s (checksum may have passed): %w", s.filePath, err)
		}
	case formatTOML:
		if err := toml.Unmarshal(data, &goalList); err != nil {
			return fmt.Errorf("failed to unmarshal TOML from %s (checksum may have passed): %w", s.filePath, err)
		}
	default:
		return fmt.Errorf("unsupported data format for loading: %s", s.format)
	}

	s.goals = make(map[string]models.Goal, len(goalList.Goals))
	for _, goal := range goalList.Goals {
		s.goals[goal.ID] = goal
	}
	return nil
}

// saveGoalsToFileInternal writes goals to file, then writes its checksum.
// Assumes the file lock is held by the caller.
func (s *FileGoalStore) saveGoalsToFileInternal() error {
	goalList := models.GoalList{
		Goals:      make([]models.Goal, 0, len(s.goals)),
		TotalCount: len(s.goals),
	}
	for _, goal := range s.goals {
		goalList.Goals = append(goalList.Goals, goal)
	}
	// Stable file output keeps diffs and checksums deterministic.
	sort.Slice(goalList.Goals, func(i, j int) bool {
		return goalList.Goals[i].CreatedAt.Before(goalList.Goals[j].CreatedAt)
	})

	var marshaledData []byte
	var err error

	switch s.format {
	case formatJSON:
		marshaledData, err = json.MarshalIndent(goalList, "", "  ")
	case formatYAML:
		marshaledData, err = yaml.Marshal(goalList)
	case formatTOML:
		buf := new(bytes.Buffer)
		if encodeErr := toml.NewEncoder(buf).Encode(goalList); encodeErr == nil {
			marshaledData = buf.Bytes()
		} else {
			err = fmt.Errorf("failed to marshal TOML: %w", encodeErr)
		}
	default:
		return fmt.Errorf("unsupported data format for saving: %s", s.format)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal goals to %s: %w", s.format, err)
	}

	tempFilePath := s.filePath + ".tmp"
	checksumFilePath := s.filePath + checksumSuffix
	tempChecksumFilePath := checksumFilePath + ".tmp"

	defer func() { _ = os.Remove(tempFilePath) }()
	defer func() { _ = os.Remove(tempChecksumFilePath) }()

	if err := os.WriteFile(tempFilePath, marshaledData, 0o644); err != nil {
		return fmt.Errorf("failed to write to temporary data file %s: %w", tempFilePath, err)
	}

	actualChecksum := calculateChecksum(marshaledData)
	if err := os.WriteFile(tempChecksumFilePath, []byte(actualChecksum), 0o644); err != nil {
		return fmt.Errorf("failed to write to temporary checksum file %s: %w", tempChecksumFilePath, err)
	}

	// Atomically move data file and then checksum file
	if err := os.Rename(tempFilePath, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temporary data file %s to %s: %w", tempFilePath, s.filePath, err)
	}
	if err := os.Rename(tempChecksumFilePath, checksumFilePath); err != nil {
		return fmt.Errorf("CRITICAL: data file %s updated, but failed to update checksum file %s from %s: %w - store may be inconsistent", s.filePath, checksumFilePath, tempChecksumFilePath, err)
	}

	return nil
}

// generateID creates a new universally unique identifier string.
func generateID() string {
	return uuid.NewString()
}

// CreateGoal adds a new goal to the store. It sets the ID and creation
// timestamp if absent, and recomputes derived progress before persisting.
func (s *FileGoalStore) CreateGoal(goal models.Goal) (models.Goal, error) {
	if err := s.flk.Lock(); err != nil {
		return models.Goal{}, fmt.Errorf("could not lock file for create: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	// Reload state from disk so concurrent processes see each other's writes.
	if err := s.loadGoalsFromFileInternal(); err != nil {
		return models.Goal{}, fmt.Errorf("failed to reload goals before create: %w", err)
	}

	if goal.ID == "" {
		goal.ID = generateID()
	} else {
		if _, exists := s.goals[goal.ID]; exists {
			return models.Goal{}, fmt.Errorf("goal with ID '%s' already exists", goal.ID)
		}
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

	if err := s.saveGoalsToFileInternal(); err != nil {
		// Best-effort rollback: reload from the unchanged file.
		_ = s.loadGoalsFromFileInternal()
		return models.Goal{}, fmt.Errorf("failed to save new goal: %w", err)
	}

	return goal, nil
}

// GetGoal retrieves a goal by its unique identifier.
func (s *FileGoalStore) GetGoal(id string) (models.Goal, error) {
	if err := s.flk.Lock(); err != nil {
		return models.Goal{}, fmt.Errorf("failed to acquire lock for GetGoal: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	if err := s.loadGoalsFromFileInternal(); err != nil {
		return models.Goal{}, fmt.Errorf("failed to load goals for GetGoal: %w", err)
	}

	goal, ok := s.goals[id]
	if !ok {
		return models.Goal{}, ErrGoalNotFound
	}
	return goal, nil
}

// ListGoals retrieves all goals for a user, ordered by creation time.
func (s *FileGoalStore) ListGoals(userID string) ([]models.Goal, error) {
	if err := s.flk.Lock(); err != nil {
		return nil, fmt.Errorf("failed to acquire lock for ListGoals: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	if err := s.loadGoalsFromFileInternal(); err != nil {
		return nil, fmt.Errorf("failed to load goals for ListGoals: %w", err)
	}

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

// UpdateGoal replaces an existing goal with the given value.
func (s *FileGoalStore) UpdateGoal(id string, goal models.Goal) (models.Goal, error) {
	if err := s.flk.Lock(); err != nil {
		return models.Goal{}, fmt.Errorf("could not lock file for update: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	if err := s.loadGoalsFromFileInternal(); err != nil {
		return models.Goal{}, fmt.Errorf("failed to reload goals before update: %w", err)
	}

	existing, exists := s.goals[id]
	if !exists {
		return models.Goal{}, ErrGoalNotFound
	}

	// Identity and ownership are immutable through this path.
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

	if err := s.saveGoalsToFileInternal(); err != nil {
		_ = s.loadGoalsFromFileInternal()
		return models.Goal{}, fmt.Errorf("failed to save updated goal: %w", err)
	}

	return goal, nil
}

// DeleteGoal removes a goal from the store. Tasks and subtasks are owned by
// the goal, so the cascade is implicit.
func (s *FileGoalStore) DeleteGoal(id string) error {
	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("could not lock file for delete: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	if err := s.loadGoalsFromFileInternal(); err != nil {
		return fmt.Errorf("failed to reload goals before delete: %w", err)
	}

	if _, exists := s.goals[id]; !exists {
		return ErrGoalNotFound
	}

	delete(s.goals, id)

	if err := s.saveGoalsToFileInternal(); err != nil {
		_ = s.loadGoalsFromFileInternal()
		return fmt.Errorf("failed to save after delete: %w", err)
	}
	return nil
}

// DeleteAllGoals removes all goals from the store.
func (s *FileGoalStore) DeleteAllGoals() error {
	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("could not lock file for delete all: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	s.goals = make(map[string]models.Goal)

	if err := s.saveGoalsToFileInternal(); err != nil {
		return fmt.Errorf("failed to save after delete all: %w", err)
	}
	return nil
}

// Backup creates a backup of the current goal data to the destination path.
func (s *FileGoalStore) Backup(destinationPath string) error {
	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock for backup: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	input, err := os.ReadFile(s.filePath)
	if err != nil {
		return fmt.Errorf("failed to read source file %s for backup: %w", s.filePath, err)
	}

	if err = os.WriteFile(destinationPath, input, 0o644); err != nil {
		return fmt.Errorf("failed to write backup file to %s: %w", destinationPath, err)
	}
	// Backup does not copy the .checksum file; a restored file gets a fresh
	// checksum on the next save.
	return nil
}

// Restore replaces the current goal data with data from the source path.
func (s *FileGoalStore) Restore(sourcePath string) error {
	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock for restore: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	sourceData, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to read source backup file %s: %w", sourcePath, err)
	}

	tempFilePath := s.filePath + ".tmp_restore"
	defer func() { _ = os.Remove(tempFilePath) }()

	if err = os.WriteFile(tempFilePath, sourceData, 0o644); err != nil {
		return fmt.Errorf("failed to write restored data to temporary file %s: %w", tempFilePath, err)
	}

	if err = os.Rename(tempFilePath, s.filePath); err != nil {
		return fmt.Errorf("failed to atomically replace file %s with restored data from %s: %w", s.filePath, sourcePath, err)
	}

	// Remove the old checksum; a new one is generated on the next save.
	checksumFilePath := s.filePath + checksumSuffix
	_ = os.Remove(checksumFilePath)

	return s.loadGoalsFromFileInternal()
}

// Close releases the file lock held by the store.
// flock.Unlock() is idempotent and can be called even if the lock is not held.
func (s *FileGoalStore) Close() error {
	if s.flk != nil {
		return s.flk.Unlock()
	}
	return nil
}
