package postgres

import (
	"time"

	"github.com/dom/wedge-builds/internal/domain"
	"github.com/dom/wedge-builds/internal/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every table managed by AutoMigrate.
var Models = []interface{}{
	&domain.User{},
	&domain.UserSession{},
	&domain.Build{},
}

type Options struct {
	LogLevel        logger.LogLevel
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

func NewConnection(databaseURL string, opts Options) (*gorm.DB, error) {
	if opts.LogLevel == 0 {
		opts.LogLevel = logger.Warn
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(opts.LogLevel),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	// Auto-migrate tables
	if err := db.AutoMigrate(Models...); err != nil {
		return nil, err
	}

	return db, nil
}

// NewRepositories wires the document store repositories. Draft and
// notification storage live in the local store and are filled in by the
// caller.
func NewRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		User:    NewUserRepository(db),
		Session: NewSessionRepository(db),
		Build:   NewBuildRepository(db),
	}
}
