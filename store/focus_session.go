package store

import (
	"context"
	"time"
)

// FocusSessionKind is the kind of a focus session.
type FocusSessionKind string

const (
	// FocusSessionFocus is a work interval.
	FocusSessionFocus FocusSessionKind = "FOCUS"
	// FocusSessionShortBreak is a short break interval.
	FocusSessionShortBreak FocusSessionKind = "SHORT_BREAK"
	// FocusSessionLongBreak is a long break interval.
	FocusSessionLongBreak FocusSessionKind = "LONG_BREAK"
)

// FocusSession is the object representing one Pomodoro-style interval.
// The timer itself runs on the client; the server only records the session.
type FocusSession struct {
	ID              int32
	UID             string
	CreatorID       int32
	CreatedTs       int64
	Kind            FocusSessionKind
	DurationMinutes int32
	Completed       bool
	StartedTs       int64
	CompletedTs     *int64
}

// FindFocusSession is the find condition for focus session.
type FindFocusSession struct {
	ID        *int32
	UID       *string
	CreatorID *int32
	Completed *bool
	Kind      *FocusSessionKind

	// Time range filters on StartedTs
	StartedAfter  *int64
	StartedBefore *int64

	Limit  *int
	Offset *int
}

// UpdateFocusSession is the update request for focus session.
type UpdateFocusSession struct {
	ID          int32
	Completed   *bool
	CompletedTs *int64
}

// DeleteFocusSession is the delete request for focus session.
type DeleteFocusSession struct {
	ID        int32
	CreatorID int32
}

func (s *Store) CreateFocusSession(ctx context.Context, create *FocusSession) (*FocusSession, error) {
	return s.driver.CreateFocusSession(ctx, create)
}

func (s *Store) ListFocusSessions(ctx context.Context, find *FindFocusSession) ([]*FocusSession, error) {
	return s.driver.ListFocusSessions(ctx, find)
}

// GetFocusSession gets a focus session by find condition.
func (s *Store) GetFocusSession(ctx context.Context, find *FindFocusSession) (*FocusSession, error) {
	list, err := s.driver.ListFocusSessions(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateFocusSession(ctx context.Context, update *UpdateFocusSession) error {
	return s.driver.UpdateFocusSession(ctx, update)
}

func (s *Store) DeleteFocusSession(ctx context.Context, delete *DeleteFocusSession) error {
	return s.driver.DeleteFocusSession(ctx, delete)
}

// StartedAt parses the session start time to time.Time.
func (f *FocusSession) StartedAt() time.Time {
	return time.Unix(f.StartedTs, 0)
}

// EndsAt returns the natural end of the interval.
func (f *FocusSession) EndsAt() time.Time {
	return f.StartedAt().Add(time.Duration(f.DurationMinutes) * time.Minute)
}

// IsActiveAt checks if the session interval covers the given time.
func (f *FocusSession) IsActiveAt(ts int64) bool {
	return ts >= f.StartedTs && ts <= f.EndsAt().Unix()
}
