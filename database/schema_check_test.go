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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySchemaCurrent(t *testing.T) {
	db, err := Initialize(context.Background(), testConfig(t), NopLogger())
	require.NoError(t, err)
	defer db.Close()

	drift, err := VerifySchema(context.Background(), db)
	require.NoError(t, err)
	assert.Empty(t, drift)
}

func TestVerifySchemaMissingTable(t *testing.T) {
	db := openRaw(t, filepath.Join(t.TempDir(), "items.sqlite"))

	drift, err := VerifySchema(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, []string{"table items is missing"}, drift)
}

func TestVerifySchemaDetectsDrift(t *testing.T) {
	ctx := context.Background()
	db := openRaw(t, filepath.Join(t.TempDir(), "items.sqlite"))
	for _, stmt := range []string{
		"CREATE TABLE items (title TEXT NOT NULL, state VARCHAR(20))",
		"CREATE INDEX items_title_key ON items (title)",
	} {
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}

	drift, err := VerifySchema(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"column items.state has type VARCHAR(20), want TEXT",
		"index items_title_key uniqueness differs",
	}, drift)
}
