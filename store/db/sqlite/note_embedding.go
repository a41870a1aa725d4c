package sqlite

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/zenvahq/zenva/store"
)

// SQLite has no native vector type. Embeddings are stored as JSON arrays and
// cosine similarity is computed in-process over the requesting user's notes.
// This keeps the single-binary deployment self-contained; PostgreSQL with
// pgvector is the reference implementation for larger note sets.

func (d *DB) UpsertNoteEmbedding(ctx context.Context, embedding *store.NoteEmbedding) (*store.NoteEmbedding, error) {
	data, err := json.Marshal(embedding.Embedding)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal embedding")
	}

	stmt := `
		INSERT INTO note_embedding (note_id, embedding, model, created_ts, updated_ts)
		VALUES (` + placeholders(5) + `)
		ON CONFLICT (note_id, model)
		DO UPDATE SET
			embedding = EXCLUDED.embedding,
			updated_ts = EXCLUDED.updated_ts
		RETURNING id, created_ts, updated_ts`

	if err := d.db.QueryRowContext(ctx, stmt,
		embedding.NoteID,
		string(data),
		embedding.Model,
		embedding.CreatedTs,
		embedding.UpdatedTs,
	).Scan(&embedding.ID, &embedding.CreatedTs, &embedding.UpdatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to upsert note embedding")
	}

	return embedding, nil
}

func (d *DB) ListNoteEmbeddings(ctx context.Context, find *store.FindNoteEmbedding) ([]*store.NoteEmbedding, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.NoteID != nil {
		where, args = append(where, "note_id = "+placeholder(len(args)+1)), append(args, *find.NoteID)
	}
	if find.Model != nil {
		where, args = append(where, "model = "+placeholder(len(args)+1)), append(args, *find.Model)
	}

	query := `
		SELECT id, note_id, embedding, model, created_ts, updated_ts
		FROM note_embedding
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list note embeddings")
	}
	defer rows.Close()

	list := []*store.NoteEmbedding{}
	for rows.Next() {
		var embedding store.NoteEmbedding
		var data string
		if err := rows.Scan(
			&embedding.ID,
			&embedding.NoteID,
			&data,
			&embedding.Model,
			&embedding.CreatedTs,
			&embedding.UpdatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan note embedding")
		}
		if err := json.Unmarshal([]byte(data), &embedding.Embedding); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal embedding")
		}
		list = append(list, &embedding)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

func (d *DB) DeleteNoteEmbedding(ctx context.Context, noteID int32) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM note_embedding WHERE note_id = ?`, noteID); err != nil {
		return errors.Wrap(err, "failed to delete note embedding")
	}
	return nil
}

// VectorSearch performs cosine similarity search over the user's notes.
func (d *DB) VectorSearch(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.NoteWithScore, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT n.id, n.uid, n.creator_id, n.row_status, n.created_ts,
			n.content, n.summary, n.category, e.embedding
		FROM voice_note n
		INNER JOIN note_embedding e ON n.id = e.note_id
		WHERE n.creator_id = ?
			AND n.row_status = 'NORMAL'
			AND e.model = ?`

	rows, err := d.db.QueryContext(ctx, query, opts.UserID, opts.Model)
	if err != nil {
		return nil, errors.Wrap(err, "failed to vector search")
	}
	defer rows.Close()

	results := []*store.NoteWithScore{}
	for rows.Next() {
		var note store.VoiceNote
		var data string
		if err := rows.Scan(
			&note.ID,
			&note.UID,
			&note.CreatorID,
			&note.RowStatus,
			&note.CreatedTs,
			&note.Content,
			&note.Summary,
			&note.Category,
			&data,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan vector search result")
		}

		var stored []float32
		if err := json.Unmarshal([]byte(data), &stored); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal stored embedding")
		}

		score, err := cosineSimilarity(opts.Vector, stored)
		if err != nil {
			// Dimension mismatch is a hard failure, never a silent truncation.
			return nil, errors.Wrapf(err, "note %d", note.ID)
		}

		results = append(results, &store.NoteWithScore{Note: &note, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// cosineSimilarity computes the cosine similarity of two vectors.
// Vectors of different dimensionality are an error.
func cosineSimilarity(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, errors.Errorf("embedding dimension mismatch: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, errors.New("empty embedding")
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB))), nil
}
