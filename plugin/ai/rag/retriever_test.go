package rag

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenvahq/zenva/store"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return f.vector, f.err
}

type fakeVectorStore struct {
	results  []*store.NoteWithScore
	err      error
	lastOpts *store.VectorSearchOptions
}

func (f *fakeVectorStore) VectorSearch(_ context.Context, opts *store.VectorSearchOptions) ([]*store.NoteWithScore, error) {
	f.lastOpts = opts
	return f.results, f.err
}

func scored(id int32, content string, score float32) *store.NoteWithScore {
	return &store.NoteWithScore{
		Note:  &store.VoiceNote{ID: id, Content: content},
		Score: score,
	}
}

func TestRetrieveFiltersByThreshold(t *testing.T) {
	vectors := &fakeVectorStore{
		results: []*store.NoteWithScore{
			scored(1, "drink more water", 0.91),
			scored(2, "morning run", 0.55),
			scored(3, "unrelated note", 0.12),
		},
	}
	retriever := NewRetriever(
		&fakeEmbedder{vector: []float32{0.1, 0.2}},
		vectors,
		Config{TopK: 3, Threshold: 0.3, Model: "text-embedding-3-small"},
	)

	matches, err := retriever.Retrieve(context.Background(), 42, "hydration habits")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, int32(1), matches[0].Note.ID)
	assert.Equal(t, int32(2), matches[1].Note.ID)

	require.NotNil(t, vectors.lastOpts)
	assert.Equal(t, int32(42), vectors.lastOpts.UserID)
	assert.Equal(t, 3, vectors.lastOpts.Limit)
	assert.Equal(t, "text-embedding-3-small", vectors.lastOpts.Model)
}

func TestRetrieveEmptyQuery(t *testing.T) {
	vectors := &fakeVectorStore{}
	retriever := NewRetriever(&fakeEmbedder{}, vectors, Config{TopK: 3})

	matches, err := retriever.Retrieve(context.Background(), 1, "")
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.Nil(t, vectors.lastOpts)
}

func TestRetrieveEmbedderError(t *testing.T) {
	embedErr := errors.New("provider down")
	retriever := NewRetriever(&fakeEmbedder{err: embedErr}, &fakeVectorStore{}, Config{TopK: 3})

	_, err := retriever.Retrieve(context.Background(), 1, "anything")
	assert.ErrorIs(t, err, embedErr)
}

func TestRetrieveNoMatchesAboveThreshold(t *testing.T) {
	vectors := &fakeVectorStore{
		results: []*store.NoteWithScore{scored(1, "a", 0.1), scored(2, "b", 0.2)},
	}
	retriever := NewRetriever(&fakeEmbedder{vector: []float32{1}}, vectors, Config{TopK: 3, Threshold: 0.3})

	matches, err := retriever.Retrieve(context.Background(), 1, "query")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRetrieveWithOverrides(t *testing.T) {
	vectors := &fakeVectorStore{
		results: []*store.NoteWithScore{
			scored(1, "a", 0.9),
			scored(2, "b", 0.6),
		},
	}
	retriever := NewRetriever(&fakeEmbedder{vector: []float32{1}}, vectors, Config{TopK: 3, Threshold: 0.3})

	matches, err := retriever.RetrieveWith(context.Background(), 1, "query", 5, 0.8)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, int32(1), matches[0].Note.ID)
	assert.Equal(t, 5, vectors.lastOpts.Limit)
}

func TestNewRetrieverDefaultsTopK(t *testing.T) {
	retriever := NewRetriever(&fakeEmbedder{}, &fakeVectorStore{}, Config{})
	assert.Equal(t, 3, retriever.config.TopK)
}
