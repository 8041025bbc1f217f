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

package itemstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomoncle/itemstore/database"
	"github.com/tomoncle/itemstore/repository"
	"github.com/tomoncle/itemstore/transfer"
	"github.com/tomoncle/itemstore/types"
	"github.com/uptrace/bun"
)

// Store is the narrow interface the UI and command layer call into. Every
// operation goes through one database.Guard, so storage access is strictly
// serialized.
type Store struct {
	cfg    *database.Config
	guard  *database.Guard
	repo   repository.Repository
	logger database.Logger
}

// Option customizes a Store.
type Option func(*Store)

// WithLogger sets the logger used by the store and by Initialize.
func WithLogger(logger database.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds a Store around guard without opening anything. The host must
// install a connection (see Open or database.Initialize) before calling any
// operation.
func New(cfg *database.Config, guard *database.Guard, opts ...Option) *Store {
	if cfg == nil {
		cfg = database.DefaultConfig()
	}
	if guard == nil {
		guard = database.NewGuard()
	}
	s := &Store{
		cfg:    cfg,
		guard:  guard,
		repo:   repository.NewItemRepository(),
		logger: database.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open initializes the storage file described by cfg, migrating it when
// needed, and returns a Store with the connection installed.
func Open(ctx context.Context, cfg *database.Config, opts ...Option) (*Store, error) {
	s := New(cfg, database.NewGuard(), opts...)
	db, err := database.Initialize(ctx, s.cfg, s.logger)
	if err != nil {
		return nil, err
	}
	s.guard.Install(db)
	return s, nil
}

// Path returns the location of the storage file.
func (s *Store) Path() string {
	return s.cfg.Path()
}

// use runs fn through the guard and logs storage failures with their SQLite
// classification.
func (s *Store) use(op string, fn func(db bun.IDB) error) error {
	err := s.guard.Use(fn)
	if err == nil || errors.Is(err, database.ErrStoreClosed) ||
		errors.Is(err, repository.ErrItemNotFound) || errors.Is(err, repository.ErrInvalidItem) {
		return err
	}
	if is, kind := database.ClassifySQLiteError(err); is {
		s.logger.Error("Storage operation failed", "op", op, "kind", kind.String(), "error", err)
	} else {
		s.logger.Error("Storage operation failed", "op", op, "error", err)
	}
	return err
}

// Add creates the item or moves it to state.
func (s *Store) Add(ctx context.Context, title, state string) (repository.AddResult, error) {
	var result repository.AddResult
	err := s.use("add", func(db bun.IDB) error {
		var err error
		result, err = s.repo.Add(ctx, db, title, state)
		return err
	})
	if err != nil {
		return repository.AddUnchanged, err
	}
	s.logger.Debug("Item added", "title", title, "state", state, "result", result)
	return result, nil
}

// Remove deletes the item with the given title, if any.
func (s *Store) Remove(ctx context.Context, title string) error {
	return s.use("remove", func(db bun.IDB) error {
		n, err := s.repo.Remove(ctx, db, title)
		if err != nil {
			return err
		}
		s.logger.Debug("Item removed", "title", title, "rows", n)
		return nil
	})
}

// UpdateState sets the state of the item with the given title, if any.
func (s *Store) UpdateState(ctx context.Context, title, state string) error {
	return s.use("update_state", func(db bun.IDB) error {
		n, err := s.repo.UpdateState(ctx, db, title, state)
		if err != nil {
			return err
		}
		s.logger.Debug("Item state updated", "title", title, "state", state, "rows", n)
		return nil
	})
}

// Clear deletes all items.
func (s *Store) Clear(ctx context.Context) error {
	return s.use("clear", func(db bun.IDB) error {
		n, err := s.repo.Clear(ctx, db)
		if err != nil {
			return err
		}
		s.logger.Info("Items cleared", "rows", n)
		return nil
	})
}

// Get returns the item with the given title. A missing item yields an error
// matching repository.ErrItemNotFound.
func (s *Store) Get(ctx context.Context, title string) (types.Item, error) {
	var item types.Item
	err := s.use("get", func(db bun.IDB) error {
		found, err := s.repo.Get(ctx, db, title)
		if err != nil {
			return err
		}
		item = *found
		return nil
	})
	return item, err
}

// ListAll returns every item.
func (s *Store) ListAll(ctx context.Context) ([]types.Item, error) {
	var items []types.Item
	err := s.use("list_all", func(db bun.IDB) error {
		var err error
		items, err = s.repo.ListAll(ctx, db)
		return err
	})
	return items, err
}

// ListByState returns the items whose state equals state.
func (s *Store) ListByState(ctx context.Context, state string) ([]types.Item, error) {
	var items []types.Item
	err := s.use("list_by_state", func(db bun.IDB) error {
		var err error
		items, err = s.repo.ListByState(ctx, db, state)
		return err
	})
	return items, err
}

// FetchJSON returns all items encoded for transfer. On failure it still returns
// transfer.EmptyList alongside the error.
func (s *Store) FetchJSON(ctx context.Context) (string, error) {
	items, err := s.ListAll(ctx)
	if err != nil {
		return transfer.EmptyList, err
	}
	return encodeOrEmpty(items)
}

// FetchByStateJSON is FetchJSON restricted to one state.
func (s *Store) FetchByStateJSON(ctx context.Context, state string) (string, error) {
	items, err := s.ListByState(ctx, state)
	if err != nil {
		return transfer.EmptyList, err
	}
	return encodeOrEmpty(items)
}

func encodeOrEmpty(items []types.Item) (string, error) {
	text, err := transfer.EncodeItems(items)
	if err != nil {
		return transfer.EmptyList, err
	}
	return text, nil
}

// Page returns one page of items.
func (s *Store) Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[types.Item], error) {
	var result *types.Pagination[types.Item]
	err := s.use("page", func(db bun.IDB) error {
		var err error
		result, err = s.repo.Page(ctx, db, page)
		return err
	})
	return result, err
}

// Stats returns the number of items per state.
func (s *Store) Stats(ctx context.Context) (map[string]int, error) {
	var stats map[string]int
	err := s.use("stats", func(db bun.IDB) error {
		var err error
		stats, err = s.repo.CountByState(ctx, db)
		return err
	})
	return stats, err
}

// Health reports on the storage file.
func (s *Store) Health(ctx context.Context) (*database.HealthStatus, error) {
	var status *database.HealthStatus
	err := s.use("health", func(db bun.IDB) error {
		status = database.CheckHealth(ctx, db, s.Path())
		return nil
	})
	return status, err
}

// Destroy closes the connection and removes the storage file. Afterwards every
// operation returns database.ErrStoreClosed.
func (s *Store) Destroy(ctx context.Context) error {
	return s.guard.Mutate(func(h *database.Handle) error {
		closeErr := h.Close()
		if err := database.Destroy(s.cfg); err != nil {
			s.logger.Error("Failed to remove storage file", "path", s.Path(), "error", err)
			return errors.Join(err, closeErr)
		}
		s.logger.Info("Storage file removed", "path", s.Path())
		return closeErr
	})
}

// Reset replaces the storage file with a fresh, migrated one and keeps the store
// usable.
func (s *Store) Reset(ctx context.Context) error {
	return s.guard.Mutate(func(h *database.Handle) error {
		if err := h.Close(); err != nil {
			s.logger.Warn("Error closing connection before reset", "error", err)
		}
		if err := database.Destroy(s.cfg); err != nil {
			return fmt.Errorf("reset storage: %w", err)
		}
		db, err := database.Initialize(ctx, s.cfg, s.logger)
		if err != nil {
			return fmt.Errorf("reset storage: %w", err)
		}
		return h.Replace(db)
	})
}

// Close releases the connection. Closing twice is a no-op.
func (s *Store) Close() error {
	err := s.guard.Mutate(func(h *database.Handle) error {
		return h.Close()
	})
	if errors.Is(err, database.ErrStoreClosed) {
		return nil
	}
	return err
}
