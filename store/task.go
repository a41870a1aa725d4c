package store

import "context"

// TaskPriority is the priority of a task.
type TaskPriority string

const (
	// TaskPriorityLow is the LOW priority.
	TaskPriorityLow TaskPriority = "LOW"
	// TaskPriorityMedium is the MEDIUM priority.
	TaskPriorityMedium TaskPriority = "MEDIUM"
	// TaskPriorityHigh is the HIGH priority.
	TaskPriorityHigh TaskPriority = "HIGH"
)

// Task is the object representing a tracked task.
type Task struct {
	ID          int32
	UID         string
	CreatorID   int32
	RowStatus   RowStatus
	CreatedTs   int64
	UpdatedTs   int64
	Title       string
	Description string
	Priority    TaskPriority
	DueTs       *int64
	Completed   bool
}

// FindTask is the find condition for task.
type FindTask struct {
	ID        *int32
	UID       *string
	CreatorID *int32
	RowStatus *RowStatus
	Completed *bool
	Priority  *TaskPriority

	Limit  *int
	Offset *int
}

// UpdateTask is the update request for task.
type UpdateTask struct {
	ID          int32
	UpdatedTs   *int64
	RowStatus   *RowStatus
	Title       *string
	Description *string
	Priority    *TaskPriority
	DueTs       *int64
	Completed   *bool
}

// DeleteTask is the delete request for task.
type DeleteTask struct {
	ID        int32
	CreatorID int32
}

func (s *Store) CreateTask(ctx context.Context, create *Task) (*Task, error) {
	return s.driver.CreateTask(ctx, create)
}

func (s *Store) ListTasks(ctx context.Context, find *FindTask) ([]*Task, error) {
	return s.driver.ListTasks(ctx, find)
}

// GetTask gets a task by find condition.
func (s *Store) GetTask(ctx context.Context, find *FindTask) (*Task, error) {
	list, err := s.driver.ListTasks(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateTask(ctx context.Context, update *UpdateTask) error {
	return s.driver.UpdateTask(ctx, update)
}

func (s *Store) DeleteTask(ctx context.Context, delete *DeleteTask) error {
	return s.driver.DeleteTask(ctx, delete)
}
