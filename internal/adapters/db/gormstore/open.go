package gormstore

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Options struct {
	Driver string
	DSN    string
	// SQLLog logs every statement instead of only slow ones and errors.
	SQLLog bool
	Logger logrus.FieldLogger
}

func Open(opts Options) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: newLogger(opts)}

	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", DriverSQLite:
		return gorm.Open(sqlite.Dialector{
			DriverName: "sqlite",
			DSN:        sqliteDSN(opts.DSN),
		}, cfg)
	case DriverPostgres:
		return gorm.Open(postgres.Open(opts.DSN), cfg)
	default:
		return nil, errors.Errorf("unsupported database driver %q", opts.Driver)
	}
}

// sqliteDSN turns on foreign keys for every pooled connection; cascades and
// reference checks depend on it.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func newLogger(opts Options) logger.Interface {
	if opts.Logger == nil {
		return logger.Default.LogMode(logger.Warn)
	}
	level := logger.Warn
	if opts.SQLLog {
		level = logger.Info
	}
	return logger.New(opts.Logger, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}
