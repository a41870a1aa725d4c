package rag

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/zenvahq/zenva/store"
)

// EmbeddingStore persists note vectors.
type EmbeddingStore interface {
	UpsertNoteEmbedding(ctx context.Context, embedding *store.NoteEmbedding) (*store.NoteEmbedding, error)
}

// Indexer embeds note content and stores the vector for later retrieval.
type Indexer struct {
	embedder Embedder
	vectors  EmbeddingStore
	model    string
	now      func() time.Time
}

// NewIndexer creates an Indexer.
func NewIndexer(embedder Embedder, vectors EmbeddingStore, model string) *Indexer {
	return &Indexer{
		embedder: embedder,
		vectors:  vectors,
		model:    model,
		now:      time.Now,
	}
}

// IndexNote embeds the note content and upserts its vector. Re-indexing an
// already indexed note replaces the stored vector.
func (i *Indexer) IndexNote(ctx context.Context, note *store.VoiceNote) error {
	if note.Content == "" {
		return errors.New("cannot index empty note")
	}

	vector, err := i.embedder.Embed(ctx, note.Content)
	if err != nil {
		return err
	}

	now := i.now().Unix()
	if _, err := i.vectors.UpsertNoteEmbedding(ctx, &store.NoteEmbedding{
		NoteID:    note.ID,
		Embedding: vector,
		Model:     i.model,
		CreatedTs: now,
		UpdatedTs: now,
	}); err != nil {
		return errors.Wrap(err, "failed to store note embedding")
	}

	return nil
}
