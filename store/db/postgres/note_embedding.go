package postgres

import (
	"context"
	"strings"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/zenvahq/zenva/store"
)

// UpsertNoteEmbedding inserts or updates a note embedding.
func (d *DB) UpsertNoteEmbedding(ctx context.Context, embedding *store.NoteEmbedding) (*store.NoteEmbedding, error) {
	stmt := `
		INSERT INTO note_embedding (note_id, embedding, model, created_ts, updated_ts)
		VALUES (` + placeholders(5) + `)
		ON CONFLICT (note_id, model)
		DO UPDATE SET
			embedding = EXCLUDED.embedding,
			updated_ts = EXCLUDED.updated_ts
		RETURNING id, created_ts, updated_ts`

	vector := pgvector.NewVector(embedding.Embedding)
	if err := d.db.QueryRowContext(ctx, stmt,
		embedding.NoteID,
		vector,
		embedding.Model,
		embedding.CreatedTs,
		embedding.UpdatedTs,
	).Scan(&embedding.ID, &embedding.CreatedTs, &embedding.UpdatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to upsert note embedding")
	}

	return embedding, nil
}

// ListNoteEmbeddings lists note embeddings.
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
		var vector pgvector.Vector
		if err := rows.Scan(
			&embedding.ID,
			&embedding.NoteID,
			&vector,
			&embedding.Model,
			&embedding.CreatedTs,
			&embedding.UpdatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan note embedding")
		}
		embedding.Embedding = vector.Slice()
		list = append(list, &embedding)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

// DeleteNoteEmbedding deletes the embeddings of a note.
func (d *DB) DeleteNoteEmbedding(ctx context.Context, noteID int32) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM note_embedding WHERE note_id = `+placeholder(1), noteID); err != nil {
		return errors.Wrap(err, "failed to delete note embedding")
	}
	return nil
}

// VectorSearch performs cosine similarity search using pgvector.
// The <=> operator computes cosine distance, so 1 - distance is the score and
// ordering by distance ascending returns the most similar notes first.
func (d *DB) VectorSearch(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.NoteWithScore, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT
			n.id, n.uid, n.creator_id, n.row_status, n.created_ts,
			n.content, n.summary, n.category,
			1 - (e.embedding <=> ` + placeholder(1) + `) AS score
		FROM voice_note n
		INNER JOIN note_embedding e ON n.id = e.note_id
		WHERE n.creator_id = ` + placeholder(2) + `
			AND n.row_status = 'NORMAL'
			AND e.model = ` + placeholder(3) + `
		ORDER BY e.embedding <=> ` + placeholder(4) + `
		LIMIT ` + placeholder(5)

	vector := pgvector.NewVector(opts.Vector)
	rows, err := d.db.QueryContext(ctx, query,
		vector,
		opts.UserID,
		opts.Model,
		vector,
		limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to vector search")
	}
	defer rows.Close()

	results := []*store.NoteWithScore{}
	for rows.Next() {
		var note store.VoiceNote
		var result store.NoteWithScore
		if err := rows.Scan(
			&note.ID,
			&note.UID,
			&note.CreatorID,
			&note.RowStatus,
			&note.CreatedTs,
			&note.Content,
			&note.Summary,
			&note.Category,
			&result.Score,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan vector search result")
		}
		result.Note = &note
		results = append(results, &result)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
