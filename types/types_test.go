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

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateLabels(t *testing.T) {
	assert.Equal(t, []string{"to-do", "in-progress", "done"}, KnownStates())
	assert.Equal(t, "In Progress", StateLabel(StateInProgress))
	assert.Equal(t, "blocked", StateLabel("blocked"))
	assert.True(t, IsKnownState(StateDone))
	assert.False(t, IsKnownState("Done"))
}

func TestPageRequestDefaults(t *testing.T) {
	p := NewDefaultPageRequest(0, -1)
	assert.Equal(t, 1, p.GetPage())
	assert.Equal(t, 10, p.GetPageSize())
	assert.Equal(t, 0, p.GetOffset())
	assert.Nil(t, p.GetFilter())

	assert.Equal(t, MaxPageSize, NewDefaultPageRequest(1, MaxPageSize+1).GetPageSize())

	var zero PageRequest
	assert.Zero(t, zero.GetPage(), "getters never rewrite the request")
	assert.Zero(t, zero.GetPageSize())

	p = NewPageRequest(3, 25, StateFilter(StateDone), []string{"title ASC"})
	assert.Equal(t, 50, p.GetOffset())
	assert.Equal(t, "state = ?", p.GetFilter().Schema)
	assert.Equal(t, []interface{}{StateDone}, p.GetFilter().Args)
	assert.Equal(t, []string{"title ASC"}, p.GetOrders())
}

func TestNewDefaultPagination(t *testing.T) {
	p := NewDefaultPagination[Item](2, 5)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 5, p.PageSize)
	assert.Zero(t, p.Total)
	assert.NotNil(t, p.Items)
}
