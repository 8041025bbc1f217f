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
	"sort"

	"github.com/uptrace/bun"
)

// CurrentSchemaVersion is the user_version a fully migrated file carries.
const CurrentSchemaVersion = 2

// MigrationFunc is a migration step executed within the migration transaction.
type MigrationFunc func(ctx context.Context, db bun.IDB) error

// MigrationItem describes the step that upgrades a file to Version.
type MigrationItem struct {
	Version     int
	Name        string
	Description string
	Up          MigrationFunc
}

// Migrator brings a storage file to CurrentSchemaVersion. It is the only code
// that issues DDL or writes the version marker.
type Migrator struct {
	logger     Logger
	migrations []MigrationItem
	target     int
}

// NewMigrator returns a Migrator with the built-in migration steps.
func NewMigrator(logger Logger) *Migrator {
	return newMigrator(logger, CurrentSchemaVersion, defaultMigrations())
}

func newMigrator(logger Logger, target int, migrations []MigrationItem) *Migrator {
	sorted := make([]MigrationItem, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Version < sorted[j].Version
	})
	return &Migrator{logger: loggerOrNop(logger), migrations: sorted, target: target}
}

func defaultMigrations() []MigrationItem {
	return []MigrationItem{
		{
			Version:     1,
			Name:        "create_items_table",
			Description: "Create the items table",
			Up:          createItemsTable,
		},
		{
			Version:     2,
			Name:        "unique_item_titles",
			Description: "Collapse duplicate titles and add a unique index on title",
			Up:          uniqueItemTitles,
		},
	}
}

// SchemaVersion reads the version marker stored in the file (0 when the file
// was never initialized).
func (m *Migrator) SchemaVersion(ctx context.Context, db bun.IDB) (int, error) {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("read user_version: %w", err)
	}
	return version, nil
}

// Migrate reads the stored version and runs EnsureCurrent with it.
func (m *Migrator) Migrate(ctx context.Context, db bun.IDB) error {
	version, err := m.SchemaVersion(ctx, db)
	if err != nil {
		return err
	}
	return m.EnsureCurrent(ctx, db, version)
}

// EnsureCurrent applies every step newer than observed in one transaction and
// records the target version. A failing step rolls back the whole upgrade so the
// stored version keeps its previous value.
func (m *Migrator) EnsureCurrent(ctx context.Context, db bun.IDB, observed int) error {
	if observed == m.target {
		return nil
	}
	if observed > m.target {
		return fmt.Errorf("%w: file has version %d, newest known is %d",
			ErrUnsupportedSchemaVersion, observed, m.target)
	}

	ctx = withSilentQueries(ctx)

	// SQLite refuses to switch into WAL inside a transaction.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("set journal mode: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}
	var committed bool
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			m.logger.Error("Failed to rollback migration transaction", "error", rbErr)
		}
	}()

	for _, migration := range m.migrations {
		if migration.Version <= observed || migration.Version > m.target {
			continue
		}
		if err := migration.Up(ctx, tx); err != nil {
			return fmt.Errorf("failed to execute migration %d (%s): %w", migration.Version, migration.Name, err)
		}
		m.logger.Debug("Migration step applied", "version", migration.Version, "name", migration.Name)
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.target)); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	committed = true

	m.logger.Info("Database migrations completed", "from", observed, "to", m.target)
	return nil
}

func createItemsTable(ctx context.Context, db bun.IDB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS items (
			title TEXT NOT NULL,
			state TEXT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create items table: %w", err)
	}
	return nil
}

// uniqueItemTitles keeps the most recently inserted row for every title before
// the unique index is created, so files written without the constraint upgrade
// cleanly.
func uniqueItemTitles(ctx context.Context, db bun.IDB) error {
	if _, err := db.ExecContext(ctx, `
		DELETE FROM items
		WHERE rowid NOT IN (SELECT MAX(rowid) FROM items GROUP BY title)`); err != nil {
		return fmt.Errorf("collapse duplicate titles: %w", err)
	}
	if _, err := db.ExecContext(ctx,
		"CREATE UNIQUE INDEX IF NOT EXISTS items_title_key ON items (title)"); err != nil {
		return fmt.Errorf("create title index: %w", err)
	}
	return nil
}
