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
	"fmt"
	"sort"
	"strings"

	"github.com/uptrace/bun"
)

type columnSpec struct {
	Name    string
	Type    string
	NotNull bool
}

type indexSpec struct {
	Name    string
	Columns []string
	Unique  bool
}

type tableSpec struct {
	Name    string
	Columns []columnSpec
	Indexes []indexSpec
}

// itemsTableSpec is the shape CurrentSchemaVersion promises.
var itemsTableSpec = tableSpec{
	Name: "items",
	Columns: []columnSpec{
		{Name: "title", Type: "TEXT", NotNull: true},
		{Name: "state", Type: "TEXT", NotNull: true},
	},
	Indexes: []indexSpec{
		{Name: "items_title_key", Columns: []string{"title"}, Unique: true},
	},
}

// VerifySchema compares the items table against the current schema and
// returns one line per difference. An empty result means no drift.
func VerifySchema(ctx context.Context, db bun.IDB) ([]string, error) {
	return verifyTable(ctx, db, itemsTableSpec)
}

func verifyTable(ctx context.Context, db bun.IDB, want tableSpec) ([]string, error) {
	cols, err := listExistingColumns(ctx, db, want.Name)
	if err != nil {
		return nil, fmt.Errorf("inspect columns of %s: %w", want.Name, err)
	}
	if len(cols) == 0 {
		return []string{fmt.Sprintf("table %s is missing", want.Name)}, nil
	}

	var drift []string
	for _, c := range want.Columns {
		got, ok := cols[c.Name]
		switch {
		case !ok:
			drift = append(drift, fmt.Sprintf("column %s.%s is missing", want.Name, c.Name))
		case !strings.EqualFold(got.Type, c.Type):
			drift = append(drift, fmt.Sprintf("column %s.%s has type %s, want %s", want.Name, c.Name, got.Type, c.Type))
		case got.NotNull != c.NotNull:
			drift = append(drift, fmt.Sprintf("column %s.%s nullability differs", want.Name, c.Name))
		}
	}

	indexes, err := listExistingIndexes(ctx, db, want.Name)
	if err != nil {
		return nil, fmt.Errorf("inspect indexes of %s: %w", want.Name, err)
	}
	byName := make(map[string]indexSpec, len(indexes))
	for _, idx := range indexes {
		byName[idx.Name] = idx
	}
	for _, idx := range want.Indexes {
		got, ok := byName[idx.Name]
		switch {
		case !ok:
			drift = append(drift, fmt.Sprintf("index %s is missing", idx.Name))
		case got.Unique != idx.Unique:
			drift = append(drift, fmt.Sprintf("index %s uniqueness differs", idx.Name))
		case strings.Join(got.Columns, ",") != strings.Join(idx.Columns, ","):
			drift = append(drift, fmt.Sprintf("index %s covers (%s), want (%s)",
				idx.Name, strings.Join(got.Columns, ", "), strings.Join(idx.Columns, ", ")))
		}
	}
	sort.Strings(drift)
	return drift, nil
}

func listExistingColumns(ctx context.Context, db bun.IDB, table string) (map[string]columnSpec, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := map[string]columnSpec{}
	for rows.Next() {
		var (
			cid, notnull, pk int
			name, typ        string
			def              interface{}
		)
		if err := rows.Scan(&cid, &name, &typ, &notnull, &def, &pk); err != nil {
			return nil, err
		}
		cols[name] = columnSpec{Name: name, Type: typ, NotNull: notnull == 1}
	}
	return cols, rows.Err()
}

// listExistingIndexes reads index_list first and index_info afterwards; with a
// single pooled connection the second query cannot run while the first cursor
// is open.
func listExistingIndexes(ctx context.Context, db bun.IDB, table string) ([]indexSpec, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%s)", quoteIdent(table)))
	if err != nil {
		return nil, err
	}
	var idx []indexSpec
	for rows.Next() {
		var (
			seq, unique  int
			name, origin string
			partial      interface{}
		)
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			_ = rows.Close()
			return nil, err
		}
		idx = append(idx, indexSpec{Name: name, Unique: unique == 1})
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	for i := range idx {
		info, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%s)", quoteIdent(idx[i].Name)))
		if err != nil {
			return nil, err
		}
		for info.Next() {
			var (
				seqno, cid int
				col        string
			)
			if err := info.Scan(&seqno, &cid, &col); err != nil {
				_ = info.Close()
				return nil, err
			}
			idx[i].Columns = append(idx[i].Columns, col)
		}
		if err := info.Close(); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
