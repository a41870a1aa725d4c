// Package rag provides semantic retrieval over stored voice notes.
package rag

import (
	"context"
	"log/slog"

	"github.com/zenvahq/zenva/store"
)

// Match is one retrieved note with its similarity score.
type Match struct {
	Note  *store.VoiceNote
	Score float32
}

// Embedder generates query vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorStore runs scoped similarity searches.
type VectorStore interface {
	VectorSearch(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.NoteWithScore, error)
}

// Config tunes retrieval.
type Config struct {
	// TopK is the maximum number of matches returned.
	TopK int
	// Threshold is the minimum similarity score for a match to qualify.
	Threshold float32
	// Model is the embedding model notes were indexed with.
	Model string
}

// Retriever finds the user's notes most similar to a query.
type Retriever struct {
	embedder Embedder
	vectors  VectorStore
	config   Config
}

// NewRetriever creates a new Retriever.
func NewRetriever(embedder Embedder, vectors VectorStore, config Config) *Retriever {
	if config.TopK <= 0 {
		config.TopK = 3
	}
	return &Retriever{
		embedder: embedder,
		vectors:  vectors,
		config:   config,
	}
}

// Retrieve embeds the query and returns up to TopK matches for the user,
// sorted by descending similarity. Matches below the threshold are dropped,
// so the result may be shorter than TopK or empty.
func (r *Retriever) Retrieve(ctx context.Context, userID int32, query string) ([]*Match, error) {
	return r.RetrieveWith(ctx, userID, query, 0, 0)
}

// RetrieveWith runs a retrieval with explicit bounds. A non-positive topK or
// threshold falls back to the configured value.
func (r *Retriever) RetrieveWith(ctx context.Context, userID int32, query string, topK int, threshold float32) ([]*Match, error) {
	if query == "" {
		return nil, nil
	}
	if topK <= 0 {
		topK = r.config.TopK
	}
	if threshold <= 0 {
		threshold = r.config.Threshold
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := r.vectors.VectorSearch(ctx, &store.VectorSearchOptions{
		UserID: userID,
		Vector: vector,
		Model:  r.config.Model,
		Limit:  topK,
	})
	if err != nil {
		return nil, err
	}

	matches := []*Match{}
	for _, result := range results {
		if result.Score < threshold {
			continue
		}
		matches = append(matches, &Match{
			Note:  result.Note,
			Score: result.Score,
		})
	}

	slog.Debug("memory retrieval",
		slog.Int("candidates", len(results)),
		slog.Int("matches", len(matches)))

	return matches, nil
}
