package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/zenvahq/zenva/store"
)

func (d *DB) CreateFocusSession(ctx context.Context, create *store.FocusSession) (*store.FocusSession, error) {
	fields := []string{"uid", "creator_id", "kind", "duration_minutes", "completed", "started_ts", "completed_ts"}
	args := []any{create.UID, create.CreatorID, create.Kind, create.DurationMinutes, create.Completed, create.StartedTs, create.CompletedTs}

	stmt := `INSERT INTO focus_session (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, created_ts`

	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&create.ID,
		&create.CreatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create focus session")
	}

	return create, nil
}

func (d *DB) ListFocusSessions(ctx context.Context, find *store.FindFocusSession) ([]*store.FocusSession, error) {
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
	if v := find.Completed; v != nil {
		where, args = append(where, "completed = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Kind; v != nil {
		where, args = append(where, "kind = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.StartedAfter; v != nil {
		where, args = append(where, "started_ts >= "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.StartedBefore; v != nil {
		where, args = append(where, "started_ts < "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT id, uid, creator_id, created_ts, kind, duration_minutes, completed, started_ts, completed_ts
		FROM focus_session
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY started_ts DESC`

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query focus sessions")
	}
	defer rows.Close()

	list := make([]*store.FocusSession, 0)
	for rows.Next() {
		var session store.FocusSession
		var completedTs sql.NullInt64
		if err := rows.Scan(
			&session.ID,
			&session.UID,
			&session.CreatorID,
			&session.CreatedTs,
			&session.Kind,
			&session.DurationMinutes,
			&session.Completed,
			&session.StartedTs,
			&completedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan focus session")
		}
		if completedTs.Valid {
			session.CompletedTs = &completedTs.Int64
		}
		list = append(list, &session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

func (d *DB) UpdateFocusSession(ctx context.Context, update *store.UpdateFocusSession) error {
	set, args := []string{}, []any{}

	if v := update.Completed; v != nil {
		set, args = append(set, "completed = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.CompletedTs; v != nil {
		set, args = append(set, "completed_ts = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(set) == 0 {
		return errors.New("no fields to update")
	}

	args = append(args, update.ID)
	stmt := `UPDATE focus_session SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args))
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to update focus session")
	}

	return nil
}

func (d *DB) DeleteFocusSession(ctx context.Context, delete *store.DeleteFocusSession) error {
	if _, err := d.db.ExecContext(ctx,
		`DELETE FROM focus_session WHERE id = `+placeholder(1)+` AND creator_id = `+placeholder(2),
		delete.ID, delete.CreatorID,
	); err != nil {
		return errors.Wrap(err, "failed to delete focus session")
	}
	return nil
}
