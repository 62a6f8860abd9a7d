package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReturnsSync pulls return events from the platform for every
	// active user (or one user when the payload names one).
	TaskReturnsSync = "returns:sync"
	// TaskReturnsAutoProcess runs the batch processor over unprocessed
	// returns.
	TaskReturnsAutoProcess = "returns:autoprocess"
)

// ReturnsTaskPayload scopes a task to one user. An empty UserID means all
// active users.
type ReturnsTaskPayload struct {
	UserID string `json:"user_id,omitempty"`
}

// NewReturnsSyncTask constructs a return-sync task.
func NewReturnsSyncTask(payload ReturnsTaskPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReturnsSync, data), nil
}

// NewReturnsAutoProcessTask constructs an auto-process task.
func NewReturnsAutoProcessTask(payload ReturnsTaskPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReturnsAutoProcess, data), nil
}
