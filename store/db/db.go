package db

import (
	"github.com/pkg/errors"

	"github.com/sunzhuo/teatalk/internal/profile"
	"github.com/sunzhuo/teatalk/store"
	"github.com/sunzhuo/teatalk/store/db/sqlite"
)

// NewDBDriver creates a new database driver based on the profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	switch profile.Driver {
	case "sqlite":
		return sqlite.NewDB(profile)
	default:
		return nil, errors.Errorf("unsupported driver: %s", profile.Driver)
	}
}
