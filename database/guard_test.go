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
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func TestGuardPanicsBeforeInstall(t *testing.T) {
	g := NewGuard()
	assert.False(t, g.Installed())

	assert.PanicsWithValue(t, ErrNotInstalled, func() {
		_ = g.Use(func(db bun.IDB) error { return nil })
	})
	assert.PanicsWithValue(t, ErrNotInstalled, func() {
		_ = g.Mutate(func(h *Handle) error { return nil })
	})
}

func TestGuardInstallNilPanics(t *testing.T) {
	assert.Panics(t, func() { NewGuard().Install(nil) })
}

func TestGuardUseAfterClose(t *testing.T) {
	g := NewGuard()
	db := openRaw(t, filepath.Join(t.TempDir(), "items.sqlite"))
	g.Install(db)
	require.True(t, g.Installed())

	require.NoError(t, g.Mutate(func(h *Handle) error {
		assert.Same(t, db, h.DB())
		return h.Close()
	}))
	assert.False(t, g.Installed())

	called := false
	err := g.Use(func(db bun.IDB) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.False(t, called)
	assert.ErrorIs(t, g.Mutate(func(h *Handle) error { return nil }), ErrStoreClosed)
}

func TestGuardReleasesLockAfterPanic(t *testing.T) {
	g := NewGuard()
	g.Install(openRaw(t, filepath.Join(t.TempDir(), "items.sqlite")))

	assert.Panics(t, func() {
		_ = g.Use(func(db bun.IDB) error { panic("boom") })
	})
	assert.NoError(t, g.Use(func(db bun.IDB) error {
		var one int
		return db.QueryRowContext(context.Background(), "SELECT 1").Scan(&one)
	}))
}

func TestGuardReplaceClosesPrevious(t *testing.T) {
	dir := t.TempDir()
	first := openRaw(t, filepath.Join(dir, "first.sqlite"))
	second := openRaw(t, filepath.Join(dir, "second.sqlite"))

	g := NewGuard()
	g.Install(first)
	require.NoError(t, g.Mutate(func(h *Handle) error {
		return h.Replace(second)
	}))

	assert.Error(t, first.Ping(), "previous connection is closed")
	require.NoError(t, g.Mutate(func(h *Handle) error {
		assert.Same(t, second, h.DB())
		return nil
	}))
}

func TestHandleOutsideMutatePanics(t *testing.T) {
	g := NewGuard()
	g.Install(openRaw(t, filepath.Join(t.TempDir(), "items.sqlite")))

	var leaked *Handle
	require.NoError(t, g.Mutate(func(h *Handle) error {
		leaked = h
		return nil
	}))
	assert.Panics(t, func() { leaked.DB() })
}

func TestGuardSerializesAccess(t *testing.T) {
	g := NewGuard()
	g.Install(openRaw(t, filepath.Join(t.TempDir(), "items.sqlite")))

	var (
		wg     sync.WaitGroup
		active int
		peak   int
		calls  int
		mu     sync.Mutex
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.Use(func(db bun.IDB) error {
				mu.Lock()
				calls++
				active++
				if active > peak {
					peak = active
				}
				mu.Unlock()

				var one int
				err := db.QueryRowContext(context.Background(), "SELECT 1").Scan(&one)

				mu.Lock()
				active--
				mu.Unlock()
				return err
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, peak)
	assert.Equal(t, 16, calls)
}
