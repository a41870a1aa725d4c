package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/zenvahq/zenva/store/migration"
)

// Migrate initializes the database schema.
//
// Fresh databases get the full LATEST.sql schema for their driver. Already
// initialized databases are left untouched; incremental migrations are keyed
// off the presence of the schema, not a version table, because the schema has
// had a single shape so far.
func (s *Store) Migrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check if database is initialized")
	}
	if initialized {
		return nil
	}

	buf, err := migration.FS.ReadFile(fmt.Sprintf("%s/LATEST.sql", s.profile.Driver))
	if err != nil {
		return errors.Wrapf(err, "failed to read latest schema for driver %q", s.profile.Driver)
	}

	if _, err := s.driver.GetDB().ExecContext(ctx, string(buf)); err != nil {
		return errors.Wrap(err, "failed to apply latest schema")
	}

	slog.Info("database schema initialized", slog.String("driver", s.profile.Driver))
	return nil
}
