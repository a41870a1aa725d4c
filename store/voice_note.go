package store

import "context"

// VoiceNote is the object representing a remembered transcript or saved note.
// Notes are immutable after creation except for deletion.
type VoiceNote struct {
	ID        int32
	UID       string
	CreatorID int32
	RowStatus RowStatus
	CreatedTs int64
	Content   string
	Summary   string
	Category  string
}

// FindVoiceNote is the find condition for voice note.
type FindVoiceNote struct {
	ID        *int32
	UID       *string
	CreatorID *int32
	RowStatus *RowStatus
	Category  *string

	Limit  *int
	Offset *int
}

// DeleteVoiceNote is the delete request for voice note.
type DeleteVoiceNote struct {
	ID        int32
	CreatorID int32
}

func (s *Store) CreateVoiceNote(ctx context.Context, create *VoiceNote) (*VoiceNote, error) {
	return s.driver.CreateVoiceNote(ctx, create)
}

func (s *Store) ListVoiceNotes(ctx context.Context, find *FindVoiceNote) ([]*VoiceNote, error) {
	return s.driver.ListVoiceNotes(ctx, find)
}

// GetVoiceNote gets a voice note by find condition.
func (s *Store) GetVoiceNote(ctx context.Context, find *FindVoiceNote) (*VoiceNote, error) {
	list, err := s.driver.ListVoiceNotes(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) DeleteVoiceNote(ctx context.Context, delete *DeleteVoiceNote) error {
	if err := s.driver.DeleteNoteEmbedding(ctx, delete.ID); err != nil {
		return err
	}
	return s.driver.DeleteVoiceNote(ctx, delete)
}
