package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/stridehq/stride/internal/telemetry"
	"github.com/stridehq/stride/models"
	"github.com/stridehq/stride/store"
	"github.com/stridehq/stride/types"
)

// handleChat runs one conversational turn.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := models.ValidateStruct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	// The required tag accepts all-whitespace messages; reject them here so
	// they read as a client error rather than a failed turn.
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "message must not be blank", http.StatusBadRequest)
		return
	}

	resp, err := s.chat.ProcessTurn(r.Context(), req)
	if err != nil {
		// Generation failures propagate uncaught from the turn; the client is
		// expected to apply its own fallback.
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	s.telemetry.Track(req.UserID, telemetry.EventChatTurn, telemetry.Properties{
		"response_type": string(resp.Type),
		"tasks_created": resp.TasksCreated,
	})
	if resp.TasksCreated {
		// No goal in the request means the turn minted a new goal; otherwise
		// the tasks were appended to an existing one.
		event := telemetry.EventTasksAdded
		if req.GoalID == "" {
			event = telemetry.EventGoalCreated
		}
		s.telemetry.Track(req.UserID, event, telemetry.Properties{
			"task_count": len(resp.RelatedTasks),
		})
	}

	writeAPIJSON(w, resp)
}

// handleListGoals returns the caller's goals in creation order.
func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		http.Error(w, "missing user parameter", http.StatusBadRequest)
		return
	}

	goals, err := s.store.ListGoals(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeAPIJSON(w, models.GoalList{Goals: goals, TotalCount: len(goals)})
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	goal, ok := s.loadGoal(w, r)
	if !ok {
		return
	}
	writeAPIJSON(w, goal)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteGoal(id); err != nil {
		if errors.Is(err, store.ErrGoalNotFound) {
			http.Error(w, "goal not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.telemetry.Track("", telemetry.EventGoalDeleted, telemetry.Properties{"goal_id": id})
	w.WriteHeader(http.StatusNoContent)
}

// handleGoalProgress reports the derived completion summary for one goal.
func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	goal, ok := s.loadGoal(w, r)
	if !ok {
		return
	}

	completed := 0
	for _, t := range goal.Tasks {
		if t.Completed {
			completed++
		}
	}
	writeAPIJSON(w, map[string]any{
		"goalId":         goal.ID,
		"progress":       goal.Progress,
		"completedTasks": completed,
		"totalTasks":     len(goal.Tasks),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeAPIJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) loadGoal(w http.ResponseWriter, r *http.Request) (models.Goal, bool) {
	id := r.PathValue("id")
	goal, err := s.store.GetGoal(id)
	if err != nil {
		if errors.Is(err, store.ErrGoalNotFound) {
			http.Error(w, "goal not found", http.StatusNotFound)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return models.Goal{}, false
	}
	return goal, true
}

func writeAPIJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}
