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
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/itemstore/database"
	"github.com/tomoncle/itemstore/repository"
	"github.com/tomoncle/itemstore/transfer"
	"github.com/tomoncle/itemstore/types"
)

func testConfig(t *testing.T) *database.Config {
	t.Helper()
	cfg := database.DefaultConfig()
	cfg.ConnectionConfig.DataDir = t.TempDir()
	cfg.ConnectionConfig.SlowQueryTime = 0
	return cfg
}

func newTestStore(t *testing.T, cfg *database.Config) *Store {
	t.Helper()
	s, err := Open(context.Background(), cfg, WithLogger(database.NopLogger()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, testConfig(t))

	res, err := s.Add(ctx, "Buy milk", types.StateTodo)
	require.NoError(t, err)
	assert.Equal(t, repository.AddInserted, res)
	_, err = s.Add(ctx, "Write report", types.StateInProgress)
	require.NoError(t, err)

	text, err := s.FetchJSON(ctx)
	require.NoError(t, err)
	assert.Equal(t,
		`[{"title":"Buy milk","state":"to-do"},{"title":"Write report","state":"in-progress"}]`,
		text)

	require.NoError(t, s.UpdateState(ctx, "Buy milk", types.StateDone))
	text, err = s.FetchByStateJSON(ctx, types.StateDone)
	require.NoError(t, err)
	assert.Equal(t, `[{"title":"Buy milk","state":"done"}]`, text)

	require.NoError(t, s.Remove(ctx, "Buy milk"))
	require.NoError(t, s.Remove(ctx, "Buy milk"))
	item, err := s.Get(ctx, "Write report")
	require.NoError(t, err)
	assert.Equal(t, types.NewItem("Write report", types.StateInProgress), item)

	_, err = s.Get(ctx, "Buy milk")
	assert.ErrorIs(t, err, repository.ErrItemNotFound)

	require.NoError(t, s.Clear(ctx))
	text, err = s.FetchJSON(ctx)
	require.NoError(t, err)
	assert.Equal(t, transfer.EmptyList, text)
}

func TestStoreAddIsUpsert(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, testConfig(t))

	for _, state := range []string{types.StateTodo, types.StateDone, types.StateDone} {
		_, err := s.Add(ctx, "Buy milk", state)
		require.NoError(t, err)
	}
	items, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.Item{types.NewItem("Buy milk", types.StateDone)}, items)
}

func TestStorePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	s, err := Open(ctx, cfg, WithLogger(database.NopLogger()))
	require.NoError(t, err)
	_, err = s.Add(ctx, "keep me", types.StateTodo)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s = newTestStore(t, cfg)
	items, err := s.ListByState(ctx, types.StateTodo)
	require.NoError(t, err)
	assert.Equal(t, []types.Item{types.NewItem("keep me", types.StateTodo)}, items)
}

func TestStoreDestroy(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	s := newTestStore(t, cfg)
	_, err := s.Add(ctx, "gone", types.StateTodo)
	require.NoError(t, err)

	require.NoError(t, s.Destroy(ctx))
	assert.NoFileExists(t, cfg.Path())

	_, err = s.ListAll(ctx)
	assert.ErrorIs(t, err, database.ErrStoreClosed)
	text, err := s.FetchJSON(ctx)
	assert.ErrorIs(t, err, database.ErrStoreClosed)
	assert.Equal(t, transfer.EmptyList, text)
	assert.ErrorIs(t, s.Destroy(ctx), database.ErrStoreClosed)
	assert.NoError(t, s.Close())

	fresh := newTestStore(t, cfg)
	items, err := fresh.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestStoreReset(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	s := newTestStore(t, cfg)
	_, err := s.Add(ctx, "old", types.StateTodo)
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx))
	assert.FileExists(t, cfg.Path())

	items, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
	_, err = s.Add(ctx, "new", types.StateDone)
	require.NoError(t, err)
}

func TestStoreCloseTwice(t *testing.T) {
	s := newTestStore(t, testConfig(t))
	require.NoError(t, s.Close())
	assert.NoError(t, s.Close())
	assert.ErrorIs(t, s.Clear(context.Background()), database.ErrStoreClosed)
}

func TestStoreWithoutConnectionPanics(t *testing.T) {
	s := New(testConfig(t), nil)
	assert.PanicsWithValue(t, database.ErrNotInstalled, func() {
		_, _ = s.ListAll(context.Background())
	})
}

func TestStoreStatsPageAndHealth(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	s := newTestStore(t, cfg)
	for i := 0; i < 5; i++ {
		state := types.StateTodo
		if i%2 == 1 {
			state = types.StateDone
		}
		_, err := s.Add(ctx, fmt.Sprintf("item-%d", i), state)
		require.NoError(t, err)
	}

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{types.StateTodo: 3, types.StateDone: 2}, stats)

	page, err := s.Page(ctx, types.NewDefaultPageRequest(3, 2))
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, []types.Item{types.NewItem("item-4", types.StateTodo)}, page.Items)

	status, err := s.Health(ctx)
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Equal(t, 5, status.TotalItems)
	assert.Equal(t, cfg.Path(), status.Path)
	assert.Equal(t, cfg.Path(), s.Path())
}

func TestStoreConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, testConfig(t))

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers*3)
	snapshots := make(chan []types.Item, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			state := types.StateTodo
			if w%2 == 0 {
				state = types.StateDone
			}
			if _, err := s.Add(ctx, "shared", state); err != nil {
				errs <- err
			}
			if _, err := s.Add(ctx, fmt.Sprintf("own-%d", w), state); err != nil {
				errs <- err
			}
			items, err := s.ListAll(ctx)
			if err != nil {
				errs <- err
				return
			}
			snapshots <- items
		}(w)
	}
	wg.Wait()
	close(errs)
	close(snapshots)
	for err := range errs {
		require.NoError(t, err)
	}

	// every snapshot taken mid-run is a complete, duplicate-free list
	for items := range snapshots {
		seen := make(map[string]bool, len(items))
		for _, item := range items {
			assert.NotEmpty(t, item.Title)
			assert.NotEmpty(t, item.State)
			assert.False(t, seen[item.Title], "duplicate title %q in snapshot", item.Title)
			seen[item.Title] = true
		}
		assert.True(t, seen["shared"], "snapshot taken after the worker's own adds")
	}

	items, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, items, workers+1)

	shared := 0
	for _, item := range items {
		if item.Title == "shared" {
			shared++
		}
	}
	assert.Equal(t, 1, shared)
}
