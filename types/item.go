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

// Item is the persisted entity: a human-readable title and a free-form
// lifecycle state.
type Item struct {
	Title string `json:"title" yaml:"title"`
	State string `json:"state" yaml:"state"`
}

// NewItem returns an Item with the given title and state.
func NewItem(title, state string) Item {
	return Item{Title: title, State: state}
}
