package store

import "context"

// NoteEmbedding represents the vector embedding of a voice note.
// The vector is generated once when the note is created and never recomputed.
type NoteEmbedding struct {
	ID        int32
	NoteID    int32
	Embedding []float32
	Model     string
	CreatedTs int64
	UpdatedTs int64
}

// FindNoteEmbedding is the find condition for note embeddings.
type FindNoteEmbedding struct {
	NoteID *int32
	Model  *string
}

// NoteWithScore represents a vector search result with similarity score.
type NoteWithScore struct {
	Note  *VoiceNote
	Score float32 // Cosine similarity (0-1, higher is more similar)
}

// VectorSearchOptions represents the options for vector search.
// Results are restricted to notes owned by UserID.
type VectorSearchOptions struct {
	UserID int32
	Vector []float32
	Model  string
	Limit  int
}

// UpsertNoteEmbedding inserts or updates a note embedding.
func (s *Store) UpsertNoteEmbedding(ctx context.Context, embedding *NoteEmbedding) (*NoteEmbedding, error) {
	return s.driver.UpsertNoteEmbedding(ctx, embedding)
}

// GetNoteEmbedding gets the embedding of a specific note.
func (s *Store) GetNoteEmbedding(ctx context.Context, noteID int32, model string) (*NoteEmbedding, error) {
	list, err := s.driver.ListNoteEmbeddings(ctx, &FindNoteEmbedding{
		NoteID: &noteID,
		Model:  &model,
	})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// ListNoteEmbeddings lists note embeddings.
func (s *Store) ListNoteEmbeddings(ctx context.Context, find *FindNoteEmbedding) ([]*NoteEmbedding, error) {
	return s.driver.ListNoteEmbeddings(ctx, find)
}

// DeleteNoteEmbedding deletes a note embedding.
func (s *Store) DeleteNoteEmbedding(ctx context.Context, noteID int32) error {
	return s.driver.DeleteNoteEmbedding(ctx, noteID)
}

// VectorSearch performs vector similarity search over the user's notes.
func (s *Store) VectorSearch(ctx context.Context, opts *VectorSearchOptions) ([]*NoteWithScore, error) {
	return s.driver.VectorSearch(ctx, opts)
}
