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

	"github.com/tomoncle/itemstore/types"
	"github.com/uptrace/bun"
)

// baseRepository runs the generic select/count/page queries for a row model R
// and maps every row to the entity E through toEntity, the single place that
// knows the column layout.
type baseRepository[R any, E any] struct {
	toEntity     func(*R) E
	defaultOrder string
}

func (r *baseRepository[R, E]) mapRows(rows []R) []E {
	entities := make([]E, 0, len(rows))
	for i := range rows {
		entities = append(entities, r.toEntity(&rows[i]))
	}
	return entities
}

func (r *baseRepository[R, E]) List(ctx context.Context, db bun.IDB, filter *types.QueryFilter) ([]E, error) {
	var rows []R
	query := db.NewSelect().Model(&rows)
	if filter != nil {
		query = query.Where(filter.Schema, filter.Args...)
	}
	if err := query.OrderExpr(r.orderExpr()).Scan(ctx); err != nil {
		return nil, err
	}
	return r.mapRows(rows), nil
}

func (r *baseRepository[R, E]) GetOne(ctx context.Context, db bun.IDB, filter *types.QueryFilter) (E, error) {
	var (
		row  R
		zero E
	)
	err := db.NewSelect().
		Model(&row).
		Where(filter.Schema, filter.Args...).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return zero, err
	}
	return r.toEntity(&row), nil
}

func (r *baseRepository[R, E]) Count(ctx context.Context, db bun.IDB, filter *types.QueryFilter) (int, error) {
	query := db.NewSelect().Model((*R)(nil))
	if filter != nil {
		query = query.Where(filter.Schema, filter.Args...)
	}
	return query.Count(ctx)
}

func (r *baseRepository[R, E]) Page(ctx context.Context, db bun.IDB, pageRequest *types.PageRequest) (*types.Pagination[E], error) {
	var rows []R
	query := db.NewSelect().Model(&rows)
	if pageRequest.GetFilter() != nil {
		query = query.Where(pageRequest.GetFilter().Schema, pageRequest.GetFilter().Args...)
	}
	pagination := types.NewDefaultPagination[E](pageRequest.GetPage(), pageRequest.GetPageSize())
	total, err := query.Count(ctx)
	if err != nil || total == 0 {
		return pagination, err
	}
	if orders := pageRequest.GetOrders(); len(orders) > 0 {
		query = query.Order(orders...)
	} else {
		query = query.OrderExpr(r.orderExpr())
	}
	err = query.
		Offset(pageRequest.GetOffset()).
		Limit(pageRequest.GetPageSize()).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	pagination.Total = total
	pagination.Items = r.mapRows(rows)
	return pagination, nil
}

func (r *baseRepository[R, E]) orderExpr() string {
	if r.defaultOrder == "" {
		return "rowid ASC"
	}
	return r.defaultOrder
}
