package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/zenvahq/zenva/store"
)

func (d *DB) CreateGoal(ctx context.Context, create *store.Goal) (*store.Goal, error) {
	fields := []string{"uid", "creator_id", "title", "description", "target_ts", "progress"}
	args := []any{create.UID, create.CreatorID, create.Title, create.Description, create.TargetTs, create.Progress}

	stmt := `INSERT INTO goal (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, created_ts, updated_ts, row_status`

	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&create.ID,
		&create.CreatedTs,
		&create.UpdatedTs,
		&create.RowStatus,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create goal")
	}

	return create, nil
}

func (d *DB) ListGoals(ctx context.Context, find *store.FindGoal) ([]*store.Goal, error) {
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

	query := `
		SELECT id, uid, creator_id, row_status, created_ts, updated_ts,
			title, description, target_ts, progress
		FROM goal
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
		return nil, errors.Wrap(err, "failed to query goals")
	}
	defer rows.Close()

	list := make([]*store.Goal, 0)
	for rows.Next() {
		var goal store.Goal
		var targetTs sql.NullInt64
		if err := rows.Scan(
			&goal.ID,
			&goal.UID,
			&goal.CreatorID,
			&goal.RowStatus,
			&goal.CreatedTs,
			&goal.UpdatedTs,
			&goal.Title,
			&goal.Description,
			&targetTs,
			&goal.Progress,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan goal")
		}
		if targetTs.Valid {
			goal.TargetTs = &targetTs.Int64
		}
		list = append(list, &goal)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

func (d *DB) UpdateGoal(ctx context.Context, update *store.UpdateGoal) error {
	set, args := []string{}, []any{}

	if v := update.UpdatedTs; v != nil {
		set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.RowStatus; v != nil {
		set, args = append(set, "row_status = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Title; v != nil {
		set, args = append(set, "title = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Description; v != nil {
		set, args = append(set, "description = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.TargetTs; v != nil {
		set, args = append(set, "target_ts = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Progress; v != nil {
		set, args = append(set, "progress = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(set) == 0 {
		return errors.New("no fields to update")
	}

	args = append(args, update.ID)
	stmt := `UPDATE goal SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args))
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to update goal")
	}

	return nil
}

func (d *DB) DeleteGoal(ctx context.Context, delete *store.DeleteGoal) error {
	if _, err := d.db.ExecContext(ctx,
		`DELETE FROM goal WHERE id = `+placeholder(1)+` AND creator_id = `+placeholder(2),
		delete.ID, delete.CreatorID,
	); err != nil {
		return errors.Wrap(err, "failed to delete goal")
	}
	return nil
}
