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

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tomoncle/itemstore"
	"github.com/tomoncle/itemstore/repository"
	"github.com/tomoncle/itemstore/transfer"
	"github.com/tomoncle/itemstore/types"
	"gopkg.in/yaml.v3"
)

// importFile is the YAML layout accepted by import. A bare list of items is
// accepted as well.
type importFile struct {
	Items []types.Item `yaml:"items"`
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	var defaultState string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Add every item listed in a YAML or JSON file",
		Long: "Read items from a file and add each one as the add command would.\n" +
			"Files ending in .json use the same array format as list --json;\n" +
			"anything else is read as YAML, either a list of {title, state}\n" +
			"mappings or a mapping with an items key.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := readImportFile(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(cmd.Context(), func(s *itemstore.Store) error {
				counts := make(map[repository.AddResult]int)
				for _, item := range items {
					state := item.State
					if strings.TrimSpace(state) == "" {
						state = defaultState
					}
					result, err := s.Add(cmd.Context(), item.Title, state)
					if err != nil {
						return fmt.Errorf("import %q: %w", item.Title, err)
					}
					counts[result]++
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d items: %d inserted, %d updated, %d unchanged\n",
					len(items), counts[repository.AddInserted], counts[repository.AddUpdated], counts[repository.AddUnchanged])
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&defaultState, "default-state", types.StateTodo, "State for entries that do not name one")
	return cmd
}

func readImportFile(path string) ([]types.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read import file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return transfer.DecodeItems(string(data))
	}

	var list []types.Item
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var doc importFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse import file %s: %w", path, err)
	}
	return doc.Items, nil
}
