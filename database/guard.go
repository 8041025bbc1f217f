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
	"fmt"
	"sync"

	"github.com/uptrace/bun"
)

type guardState int

const (
	guardEmpty guardState = iota
	guardOpen
	guardClosed
)

// Guard holds the one storage connection of a process and serializes every use
// of it. All access goes through Use or Mutate; both release the lock on every
// exit path, panics included.
type Guard struct {
	mu    sync.Mutex
	db    *bun.DB
	state guardState
}

// NewGuard returns an empty guard. Install must be called before any accessor.
func NewGuard() *Guard {
	return &Guard{}
}

// Install stores db as the guarded connection, replacing (without closing) any
// previous one. It is meant for application setup.
func (g *Guard) Install(db *bun.DB) {
	if db == nil {
		panic("database: Install called with a nil connection")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.db = db
	g.state = guardOpen
}

// Installed reports whether a usable connection is held.
func (g *Guard) Installed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state == guardOpen
}

// Use runs fn with exclusive access to the connection for its duration.
func (g *Guard) Use(fn func(db bun.IDB) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkLocked(); err != nil {
		return err
	}
	return fn(g.db)
}

// Mutate runs fn with a Handle that may close or replace the connection. It is
// reserved for operations that invalidate the connection, such as wiping the
// storage file.
func (g *Guard) Mutate(fn func(h *Handle) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkLocked(); err != nil {
		return err
	}
	h := &Handle{guard: g}
	defer func() { h.guard = nil }()
	return fn(h)
}

func (g *Guard) checkLocked() error {
	switch g.state {
	case guardEmpty:
		panic(ErrNotInstalled)
	case guardClosed:
		return ErrStoreClosed
	}
	return nil
}

// Handle is the view of the guard handed to a Mutate callback. It is only valid
// inside that callback.
type Handle struct {
	guard *Guard
}

func (h *Handle) mustGuard() *Guard {
	if h.guard == nil {
		panic("database: Handle used outside of Mutate")
	}
	return h.guard
}

// DB returns the current connection, or nil after Close.
func (h *Handle) DB() *bun.DB {
	return h.mustGuard().db
}

// Replace closes the current connection and installs db in its place.
func (h *Handle) Replace(db *bun.DB) error {
	if db == nil {
		return fmt.Errorf("replace connection: nil connection")
	}
	g := h.mustGuard()
	var closeErr error
	if g.db != nil && g.db != db {
		closeErr = g.db.Close()
	}
	g.db = db
	g.state = guardOpen
	if closeErr != nil {
		return fmt.Errorf("close previous connection: %w", closeErr)
	}
	return nil
}

// Close closes the connection and leaves the guard without one. Later accessor
// calls return ErrStoreClosed until a connection is installed again.
func (h *Handle) Close() error {
	g := h.mustGuard()
	db := g.db
	g.db = nil
	g.state = guardClosed
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("close connection: %w", err)
	}
	return nil
}
