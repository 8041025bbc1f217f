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

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tomoncle/itemstore/types"
	"github.com/uptrace/bun"
)

// itemRow is the storage shape of an item. Schema changes touch this struct,
// toItem/fromItem and a new migration step, nothing else.
type itemRow struct {
	bun.BaseModel `bun:"table:items,alias:item"`

	Title string `bun:"title,notnull"`
	State string `bun:"state,notnull"`
}

func (r *itemRow) toItem() types.Item {
	return types.Item{Title: r.Title, State: r.State}
}

func fromItem(item types.Item) *itemRow {
	return &itemRow{Title: item.Title, State: item.State}
}

// ItemRepository implements Repository for the items table.
type ItemRepository struct {
	base baseRepository[itemRow, types.Item]
}

var _ Repository = (*ItemRepository)(nil)

// NewItemRepository returns an ItemRepository listing rows in insertion order.
func NewItemRepository() *ItemRepository {
	return &ItemRepository{
		base: baseRepository[itemRow, types.Item]{
			toEntity:     (*itemRow).toItem,
			defaultOrder: "rowid ASC",
		},
	}
}

// Add inserts the item when its title is new, updates the state when it
// differs, and does nothing otherwise. The read and the write share one
// transaction; callers serialize through the connection guard.
func (r *ItemRepository) Add(ctx context.Context, db bun.IDB, title, state string) (AddResult, error) {
	if err := validateItem(title, state); err != nil {
		return AddUnchanged, err
	}
	result := AddUnchanged
	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var existing itemRow
		err := tx.NewSelect().
			Model(&existing).
			Where("title = ?", title).
			Limit(1).
			Scan(ctx)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if _, err := tx.NewInsert().Model(fromItem(types.NewItem(title, state))).Exec(ctx); err != nil {
				return fmt.Errorf("insert item: %w", err)
			}
			result = AddInserted
			return nil
		case err != nil:
			return fmt.Errorf("look up item: %w", err)
		}
		if existing.State == state {
			return nil
		}
		if _, err := r.updateState(ctx, tx, title, state); err != nil {
			return err
		}
		result = AddUpdated
		return nil
	})
	if err != nil {
		return AddUnchanged, err
	}
	return result, nil
}

// Remove deletes the item with the given title. Zero affected rows is not an
// error.
func (r *ItemRepository) Remove(ctx context.Context, db bun.IDB, title string) (int64, error) {
	res, err := db.NewDelete().
		Model((*itemRow)(nil)).
		Where("title = ?", title).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete item: %w", err)
	}
	return rowsAffected(res)
}

// UpdateState sets the state of the matching item unconditionally. Zero
// affected rows is not an error.
func (r *ItemRepository) UpdateState(ctx context.Context, db bun.IDB, title, state string) (int64, error) {
	if err := validateItem(title, state); err != nil {
		return 0, err
	}
	return r.updateState(ctx, db, title, state)
}

func (r *ItemRepository) updateState(ctx context.Context, db bun.IDB, title, state string) (int64, error) {
	res, err := db.NewUpdate().
		Model((*itemRow)(nil)).
		Set("state = ?", state).
		Where("title = ?", title).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("update item state: %w", err)
	}
	return rowsAffected(res)
}

// Clear deletes every item.
func (r *ItemRepository) Clear(ctx context.Context, db bun.IDB) (int64, error) {
	res, err := db.NewDelete().
		Model((*itemRow)(nil)).
		Where("1 = 1").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear items: %w", err)
	}
	return rowsAffected(res)
}

// Get returns the item with the given title or ErrItemNotFound.
func (r *ItemRepository) Get(ctx context.Context, db bun.IDB, title string) (*types.Item, error) {
	item, err := r.base.GetOne(ctx, db, types.NewQueryFilter("title = ?", title))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrItemNotFound, title)
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &item, nil
}

// ListAll returns every item in storage order. The slice is never nil.
func (r *ItemRepository) ListAll(ctx context.Context, db bun.IDB) ([]types.Item, error) {
	items, err := r.base.List(ctx, db, nil)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// ListByState returns the items whose state equals state exactly.
func (r *ItemRepository) ListByState(ctx context.Context, db bun.IDB, state string) ([]types.Item, error) {
	items, err := r.base.List(ctx, db, types.StateFilter(state))
	if err != nil {
		return nil, fmt.Errorf("list items by state: %w", err)
	}
	return items, nil
}

func (r *ItemRepository) Page(ctx context.Context, db bun.IDB, page *types.PageRequest) (*types.Pagination[types.Item], error) {
	if page == nil {
		page = types.NewDefaultPageRequest(1, types.DefaultPageSize)
	} else if page.GetPage() < 1 || page.GetPageSize() < 1 {
		page = types.NewPageRequest(page.GetPage(), page.GetPageSize(), page.GetFilter(), page.GetOrders())
	}
	p, err := r.base.Page(ctx, db, page)
	if err != nil {
		return nil, fmt.Errorf("page items: %w", err)
	}
	return p, nil
}

func (r *ItemRepository) Count(ctx context.Context, db bun.IDB, filter *types.QueryFilter) (int, error) {
	n, err := r.base.Count(ctx, db, filter)
	if err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

// CountByState returns the number of items per state.
func (r *ItemRepository) CountByState(ctx context.Context, db bun.IDB) (map[string]int, error) {
	var rows []struct {
		State string `bun:"state"`
		Count int    `bun:"count"`
	}
	err := db.NewSelect().
		Model((*itemRow)(nil)).
		Column("state").
		ColumnExpr("COUNT(*) AS count").
		Group("state").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("count items by state: %w", err)
	}
	stats := make(map[string]int, len(rows))
	for _, row := range rows {
		stats[row.State] = row.Count
	}
	return stats, nil
}

func validateItem(title, state string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is empty", ErrInvalidItem)
	}
	if strings.TrimSpace(state) == "" {
		return fmt.Errorf("%w: state is empty", ErrInvalidItem)
	}
	return nil
}

func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
