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
	"encoding/json"
	"fmt"

	"github.com/tomoncle/itemstore/types"
)

// EmptyList is the encoding of zero items. Read commands answer it when a fetch
// fails.
const EmptyList = "[]"

// EncodeItems renders items as a JSON array of {"title","state"} objects. Zero
// items render as "[]", never "null".
func EncodeItems(items []types.Item) (string, error) {
	if len(items) == 0 {
		return EmptyList, nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode items: %w", err)
	}
	return string(b), nil
}

// EncodeItem renders a single item as a JSON object.
func EncodeItem(item types.Item) (string, error) {
	b, err := json.Marshal(item)
	if err != nil {
		return "", fmt.Errorf("encode item: %w", err)
	}
	return string(b), nil
}

// DecodeItems parses the output of EncodeItems. A JSON null decodes to an empty
// slice.
func DecodeItems(text string) ([]types.Item, error) {
	var items []types.Item
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	if items == nil {
		items = make([]types.Item, 0)
	}
	return items, nil
}
