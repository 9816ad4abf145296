package mysql

import (
	"embed"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	connectAttempts = 10
	connectBackoff  = time.Second
)

//go:embed migrations/*.sql
var migrations embed.FS

// Connect opens the pool and waits for the server to become reachable. The DSN
// must carry parseTime=true so DATETIME columns scan into time.Time.
func Connect(dsn string, log *logrus.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if err = db.Ping(); err == nil {
			return db, nil
		}
		log.WithError(err).Warnf("database not reachable, attempt %d/%d", attempt, connectAttempts)
		time.Sleep(connectBackoff)
	}
	return nil, errors.Wrap(err, "connect to database")
}

// Migrate brings the schema up to date from the embedded migration files.
func Migrate(db *sqlx.DB) error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return errors.Wrap(err, "open migrations")
	}
	driver, err := migratemysql.WithInstance(db.DB, &migratemysql.Config{})
	if err != nil {
		return errors.Wrap(err, "init migration driver")
	}
	m, err := migrate.NewWithInstance("iofs", source, "mysql", driver)
	if err != nil {
		return errors.Wrap(err, "init migrations")
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "apply migrations")
	}
	return nil
}
