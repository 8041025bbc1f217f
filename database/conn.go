/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Initialize opens (creating when needed) the storage file described by cfg,
// brings its schema to CurrentSchemaVersion and returns a connection ready to be
// installed into a Guard. A nil logger uses GetLogger.
func Initialize(ctx context.Context, cfg *Config, logger Logger) (*bun.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	if logger == nil {
		logger = GetLogger()
	}
	cfg.Normalize()
	cc := &cfg.ConnectionConfig

	if err := os.MkdirAll(cc.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory %s: %w", cc.DataDir, err)
	}

	path := cc.Path()
	sqlDB, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One logical connection per process; pragmas below stick to it.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)

	db := bun.NewDB(sqlDB, sqlitedialect.New())
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database connection test failed: %w", err)
	}

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", cc.BusyTimeout.Milliseconds()),
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	addQueryHooks(db, cc, logger)

	if err := NewMigrator(logger).Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	if drift, err := VerifySchema(ctx, db); err != nil {
		logger.Warn("Schema verification failed", "error", err)
	} else if len(drift) > 0 {
		logger.Warn("Storage schema differs from the expected layout", "drift", strings.Join(drift, "; "))
	}

	logger.Info("Database initialization completed", "path", path)
	return db, nil
}

// Destroy removes the storage file and the WAL sidecars SQLite keeps next to it.
// The connection to the file must already be closed. A missing file is not an
// error.
func Destroy(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("database configuration cannot be empty")
	}
	path := cfg.Path()
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", filepath.Base(p), err)
		}
	}
	return nil
}

// CheckHealth inspects the storage file through db: existence, version marker,
// row count, SQLite integrity check and schema drift.
func CheckHealth(ctx context.Context, db bun.IDB, path string) *HealthStatus {
	start := time.Now()
	status := &HealthStatus{Path: path, LastCheckTime: start}
	defer func() { status.ResponseTime = time.Since(start) }()

	info, err := os.Stat(path)
	if err != nil {
		status.LastError = err.Error()
		return status
	}
	if info.IsDir() {
		status.LastError = fmt.Sprintf("storage path %q is a directory", path)
		return status
	}
	status.FileExists = true

	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&status.SchemaVersion); err != nil {
		status.LastError = err.Error()
		return status
	}
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items").Scan(&status.TotalItems); err != nil {
		status.LastError = err.Error()
		return status
	}
	var integrity string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&integrity); err != nil {
		status.LastError = err.Error()
		return status
	}
	status.Integrity = strings.EqualFold(integrity, "ok")
	drift, err := VerifySchema(ctx, db)
	if err != nil {
		status.LastError = err.Error()
		return status
	}
	status.SchemaDrift = drift
	status.Healthy = status.Integrity && status.SchemaVersion == CurrentSchemaVersion && len(drift) == 0
	return status
}
