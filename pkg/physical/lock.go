package physical

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

const catalogueLockName = "dbaas-catalogue"

// Locker serializes schema migration and seed loading between server
// replicas sharing one database.
type Locker interface {
	// WithLock runs fn while holding the catalogue lock.
	WithLock(ctx context.Context, fn func() error) error
}

// LockConfig configures the table lock used on databases without native
// advisory locks.
type LockConfig struct {
	Enabled       bool
	Retries       int
	RetryInterval time.Duration
	// StaleAge is how old a lock row must be before another replica may
	// break it; a replica that crashed while holding the lock leaves one.
	StaleAge time.Duration
}

// DefaultLockConfig returns a LockConfig with sensible defaults.
func DefaultLockConfig() *LockConfig {
	return &LockConfig{
		Enabled:       true,
		Retries:       30,
		RetryInterval: time.Second,
		StaleAge:      5 * time.Minute,
	}
}

// LockConfigFromEnv reads lock configuration from environment variables.
//
// Environment variables:
//   - DBAAS_SEED_LOCK_ENABLED: "true" or "false" (default: "true")
//   - DBAAS_SEED_LOCK_RETRIES: attempts before giving up (default: 30)
func LockConfigFromEnv() *LockConfig {
	cfg := DefaultLockConfig()
	if v := os.Getenv("DBAAS_SEED_LOCK_ENABLED"); v != "" {
		cfg.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("DBAAS_SEED_LOCK_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Retries = n
		}
	}
	return cfg
}

// NewLocker picks the lock strategy for the database dialect: advisory
// locks on PostgreSQL, named locks on MySQL and a lock table elsewhere.
func NewLocker(db *gorm.DB, cfg *LockConfig) (Locker, error) {
	if cfg == nil {
		cfg = DefaultLockConfig()
	}
	if db == nil || !cfg.Enabled {
		return noopLock{}, nil
	}
	switch db.Dialector.Name() {
	case "postgres":
		return &advisoryLock{db: db, key: int64(crc32.ChecksumIEEE([]byte(catalogueLockName)))}, nil
	case "mysql":
		return &namedLock{db: db, name: catalogueLockName, timeout: time.Duration(cfg.Retries) * cfg.RetryInterval}, nil
	}
	if err := db.AutoMigrate(&lockRow{}); err != nil {
		return nil, fmt.Errorf("create lock table: %w", err)
	}
	return &tableLock{db: db, cfg: *cfg}, nil
}

type noopLock struct{}

func (noopLock) WithLock(_ context.Context, fn func() error) error { return fn() }

// advisoryLock holds a session-level PostgreSQL advisory lock. Lock and
// unlock must run on the same connection.
type advisoryLock struct {
	db  *gorm.DB
	key int64
}

func (l *advisoryLock) WithLock(ctx context.Context, fn func() error) error {
	return l.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		if err := conn.Exec("SELECT pg_advisory_lock(?)", l.key).Error; err != nil {
			return fmt.Errorf("acquire advisory lock: %w", err)
		}
		defer conn.Exec("SELECT pg_advisory_unlock(?)", l.key)
		return fn()
	})
}

// namedLock holds a MySQL GET_LOCK lock.
type namedLock struct {
	db      *gorm.DB
	name    string
	timeout time.Duration
}

func (l *namedLock) WithLock(ctx context.Context, fn func() error) error {
	return l.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		var got sql.NullInt64
		if err := conn.Raw("SELECT GET_LOCK(?, ?)", l.name, int(l.timeout.Seconds())).Row().Scan(&got); err != nil {
			return fmt.Errorf("acquire named lock: %w", err)
		}
		if !got.Valid || got.Int64 != 1 {
			return fmt.Errorf("acquire named lock: timed out after %s", l.timeout)
		}
		defer conn.Exec("SELECT RELEASE_LOCK(?)", l.name)
		return fn()
	})
}

type lockRow struct {
	Name     string    `gorm:"primaryKey;column:name"`
	LockedAt time.Time `gorm:"column:locked_at"`
	LockedBy string    `gorm:"column:locked_by"`
}

func (lockRow) TableName() string { return "catalogue_lock" }

// tableLock inserts a row to take the lock; the primary key makes a second
// insert fail while the row exists.
type tableLock struct {
	db  *gorm.DB
	cfg LockConfig
}

func (l *tableLock) WithLock(ctx context.Context, fn func() error) error {
	holder, _ := os.Hostname()
	if holder == "" {
		holder = "unknown"
	}
	db := l.db.WithContext(ctx)

	var lastErr error
	for attempt := 0; attempt < l.cfg.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(l.cfg.RetryInterval):
			}
		}

		db.Where("name = ? AND locked_at < ?", catalogueLockName, time.Now().Add(-l.cfg.StaleAge)).Delete(&lockRow{})

		lastErr = db.Create(&lockRow{Name: catalogueLockName, LockedAt: time.Now(), LockedBy: holder}).Error
		if lastErr == nil {
			defer l.db.Where("name = ?", catalogueLockName).Delete(&lockRow{})
			return fn()
		}
	}
	if lastErr == nil {
		lastErr = errors.New("no attempts made")
	}
	return fmt.Errorf("acquire catalogue lock after %d attempts: %w", l.cfg.Retries, lastErr)
}
