package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/zenvahq/zenva/store"
)

func (d *DB) CreateVoiceNote(ctx context.Context, create *store.VoiceNote) (*store.VoiceNote, error) {
	fields := []string{"uid", "creator_id", "content", "summary", "category"}
	args := []any{create.UID, create.CreatorID, create.Content, create.Summary, create.Category}

	stmt := `INSERT INTO voice_note (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, created_ts, row_status`

	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&create.ID,
		&create.CreatedTs,
		&create.RowStatus,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create voice note")
	}

	return create, nil
}

func (d *DB) ListVoiceNotes(ctx context.Context, find *store.FindVoiceNote) ([]*store.VoiceNote, error) {
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
	if v := find.RowStatus; v != nil {
		where, args = append(where, "row_status = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Category; v != nil {
		where, args = append(where, "category = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT id, uid, creator_id, row_status, created_ts, content, summary, category
		FROM voice_note
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC`

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query voice notes")
	}
	defer rows.Close()

	list := make([]*store.VoiceNote, 0)
	for rows.Next() {
		var note store.VoiceNote
		if err := rows.Scan(
			&note.ID,
			&note.UID,
			&note.CreatorID,
			&note.RowStatus,
			&note.CreatedTs,
			&note.Content,
			&note.Summary,
			&note.Category,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan voice note")
		}
		list = append(list, &note)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

func (d *DB) DeleteVoiceNote(ctx context.Context, delete *store.DeleteVoiceNote) error {
	if _, err := d.db.ExecContext(ctx,
		`DELETE FROM voice_note WHERE id = `+placeholder(1)+` AND creator_id = `+placeholder(2),
		delete.ID, delete.CreatorID,
	); err != nil {
		return errors.Wrap(err, "failed to delete voice note")
	}
	return nil
}
