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

package transfer

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/itemstore/types"
)

func newGolden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestEncodeItemsGolden(t *testing.T) {
	cases := []struct {
		name  string
		items []types.Item
	}{
		{
			name: "mixed_states",
			items: []types.Item{
				types.NewItem("Buy milk", types.StateTodo),
				types.NewItem("Write report", types.StateInProgress),
				types.NewItem("File taxes", types.StateDone),
			},
		},
		{
			name: "escaped_titles",
			items: []types.Item{
				types.NewItem(`Say "hi"`, types.StateTodo),
				types.NewItem("back\\slash\nnewline", types.StateDone),
			},
		},
	}

	g := newGolden(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			text, err := EncodeItems(tc.items)
			require.NoError(t, err)
			g.Assert(t, tc.name, []byte(text))
		})
	}
}

func TestEncodeItemGolden(t *testing.T) {
	text, err := EncodeItem(types.NewItem("Buy milk", types.StateTodo))
	require.NoError(t, err)
	newGolden(t).Assert(t, "single_item", []byte(text))
}

func TestEncodeItemsEmpty(t *testing.T) {
	for name, items := range map[string][]types.Item{
		"nil":   nil,
		"empty": {},
	} {
		t.Run(name, func(t *testing.T) {
			text, err := EncodeItems(items)
			require.NoError(t, err)
			assert.Equal(t, EmptyList, text)
		})
	}
}

func TestDecodeItemsRoundTrip(t *testing.T) {
	items := []types.Item{
		types.NewItem("Unicode ✓ title", "custom-state"),
		types.NewItem("a,b;c", types.StateDone),
	}
	text, err := EncodeItems(items)
	require.NoError(t, err)

	decoded, err := DecodeItems(text)
	require.NoError(t, err)
	assert.Equal(t, items, decoded)
}

func TestDecodeItemsNullAndEmpty(t *testing.T) {
	for _, text := range []string{"null", "[]"} {
		items, err := DecodeItems(text)
		require.NoError(t, err)
		assert.NotNil(t, items)
		assert.Empty(t, items)
	}
}

func TestDecodeItemsInvalid(t *testing.T) {
	_, err := DecodeItems(`{"title":"not a list"}`)
	assert.Error(t, err)
}
