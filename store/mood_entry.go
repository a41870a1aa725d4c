package store

import "context"

// MoodEntry is the object representing a single mood log.
type MoodEntry struct {
	ID        int32
	UID       string
	CreatorID int32
	CreatedTs int64
	Score     int32 // 1-5
	Note      string
	LoggedTs  int64
}

// FindMoodEntry is the find condition for mood entry.
type FindMoodEntry struct {
	ID        *int32
	UID       *string
	CreatorID *int32

	// Time range filters on LoggedTs
	LoggedAfter  *int64
	LoggedBefore *int64

	Limit  *int
	Offset *int
}

// DeleteMoodEntry is the delete request for mood entry.
type DeleteMoodEntry struct {
	ID        int32
	CreatorID int32
}

func (s *Store) CreateMoodEntry(ctx context.Context, create *MoodEntry) (*MoodEntry, error) {
	return s.driver.CreateMoodEntry(ctx, create)
}

func (s *Store) ListMoodEntries(ctx context.Context, find *FindMoodEntry) ([]*MoodEntry, error) {
	return s.driver.ListMoodEntries(ctx, find)
}

func (s *Store) DeleteMoodEntry(ctx context.Context, delete *DeleteMoodEntry) error {
	return s.driver.DeleteMoodEntry(ctx, delete)
}
