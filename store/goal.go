package store

import "context"

// Goal is the object representing a long-term goal.
type Goal struct {
	ID          int32
	UID         string
	CreatorID   int32
	RowStatus   RowStatus
	CreatedTs   int64
	UpdatedTs   int64
	Title       string
	Description string
	TargetTs    *int64
	Progress    int32 // 0-100
}

// FindGoal is the find condition for goal.
type FindGoal struct {
	ID        *int32
	UID       *string
	CreatorID *int32
	RowStatus *RowStatus

	Limit  *int
	Offset *int
}

// UpdateGoal is the update request for goal.
type UpdateGoal struct {
	ID          int32
	UpdatedTs   *int64
	RowStatus   *RowStatus
	Title       *string
	Description *string
	TargetTs    *int64
	Progress    *int32
}

// DeleteGoal is the delete request for goal.
type DeleteGoal struct {
	ID        int32
	CreatorID int32
}

func (s *Store) CreateGoal(ctx context.Context, create *Goal) (*Goal, error) {
	return s.driver.CreateGoal(ctx, create)
}

func (s *Store) ListGoals(ctx context.Context, find *FindGoal) ([]*Goal, error) {
	return s.driver.ListGoals(ctx, find)
}

// GetGoal gets a goal by find condition.
func (s *Store) GetGoal(ctx context.Context, find *FindGoal) (*Goal, error) {
	list, err := s.driver.ListGoals(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateGoal(ctx context.Context, update *UpdateGoal) error {
	return s.driver.UpdateGoal(ctx, update)
}

func (s *Store) DeleteGoal(ctx context.Context, delete *DeleteGoal) error {
	return s.driver.DeleteGoal(ctx, delete)
}
