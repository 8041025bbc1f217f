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
	"errors"

	"github.com/tomoncle/itemstore/types"
	"github.com/uptrace/bun"
)

var (
	// ErrItemNotFound is returned by single-item lookups that match no row.
	ErrItemNotFound = errors.New("item not found")
	// ErrInvalidItem rejects an empty title or state before storage is touched.
	ErrInvalidItem = errors.New("invalid item")
)

// AddResult tells what an upsert did.
type AddResult int

const (
	AddUnchanged AddResult = iota
	AddInserted
	AddUpdated
)

func (r AddResult) String() string {
	switch r {
	case AddInserted:
		return "inserted"
	case AddUpdated:
		return "updated"
	default:
		return "unchanged"
	}
}

// CrudRepository defines the item operations. Every method runs on the
// connection passed in by the caller.
type CrudRepository interface {
	Add(ctx context.Context, db bun.IDB, title, state string) (AddResult, error)

	Remove(ctx context.Context, db bun.IDB, title string) (int64, error)

	UpdateState(ctx context.Context, db bun.IDB, title, state string) (int64, error)

	Clear(ctx context.Context, db bun.IDB) (int64, error)

	Get(ctx context.Context, db bun.IDB, title string) (*types.Item, error)

	ListAll(ctx context.Context, db bun.IDB) ([]types.Item, error)

	ListByState(ctx context.Context, db bun.IDB, state string) ([]types.Item, error)
}

// PageQueryRepository defines pagination and aggregate reads.
type PageQueryRepository interface {
	Page(ctx context.Context, db bun.IDB, page *types.PageRequest) (*types.Pagination[types.Item], error)

	Count(ctx context.Context, db bun.IDB, filter *types.QueryFilter) (int, error)

	CountByState(ctx context.Context, db bun.IDB) (map[string]int, error)
}

// Repository combines CRUD and paging operations.
type Repository interface {
	CrudRepository
	PageQueryRepository
}
