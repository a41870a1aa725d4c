package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/zenvahq/zenva/store"
)

func (d *DB) CreateMoodEntry(ctx context.Context, create *store.MoodEntry) (*store.MoodEntry, error) {
	fields := []string{"uid", "creator_id", "score", "note", "logged_ts"}
	args := []any{create.UID, create.CreatorID, create.Score, create.Note, create.LoggedTs}

	stmt := `INSERT INTO mood_entry (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, created_ts`

	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&create.ID,
		&create.CreatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create mood entry")
	}

	return create, nil
}

func (d *DB) ListMoodEntries(ctx context.Context, find *store.FindMoodEntry) ([]*store.MoodEntry, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.CreatorID; v != nil {
		where, args = append(where, "creator_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.LoggedAfter; v != nil {
		where, args = append(where, "logged_ts >= "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.LoggedBefore; v != nil {
		where, args = append(where, "logged_ts < "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT id, uid, creator_id, created_ts, score, note, logged_ts
		FROM mood_entry
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY logged_ts DESC`

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query mood entries")
	}
	defer rows.Close()

	list := make([]*store.MoodEntry, 0)
	for rows.Next() {
		var entry store.MoodEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.UID,
			&entry.CreatorID,
			&entry.CreatedTs,
			&entry.Score,
			&entry.Note,
			&entry.LoggedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan mood entry")
		}
		list = append(list, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

func (d *DB) DeleteMoodEntry(ctx context.Context, delete *store.DeleteMoodEntry) error {
	if _, err := d.db.ExecContext(ctx,
		`DELETE FROM mood_entry WHERE id = ? AND creator_id = ?`,
		delete.ID, delete.CreatorID,
	); err != nil {
		return errors.Wrap(err, "failed to delete mood entry")
	}
	return nil
}
