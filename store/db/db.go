// Package db provides the database driver factory.
package db

import (
	"github.com/pkg/errors"

	"github.com/zenvahq/zenva/internal/profile"
	"github.com/zenvahq/zenva/store"
	"github.com/zenvahq/zenva/store/db/postgres"
	"github.com/zenvahq/zenva/store/db/sqlite"
)

// NewDBDriver creates new db driver based on profile.
//
// SQLite is the default for single-binary deployments; vector search runs
// in-process there. PostgreSQL with pgvector is the reference implementation
// for semantic search at any real scale.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.New("unknown db driver: only 'postgres' and 'sqlite' are supported")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
