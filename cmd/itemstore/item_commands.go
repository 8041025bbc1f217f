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
	"strings"

	"github.com/spf13/cobra"
	"github.com/tomoncle/itemstore"
	"github.com/tomoncle/itemstore/transfer"
	"github.com/tomoncle/itemstore/types"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <title> [state]",
		Short: "Add an item, or move an existing one to a new state",
		Long: "Add an item with the given title. When an item with that title already\n" +
			"exists its state is updated instead. The state defaults to " + types.StateTodo + ".\n" +
			"Well-known states: " + stateList() + ". Any other non-empty state is kept as given.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := args[0]
			state := types.StateTodo
			if len(args) == 2 {
				state = args[1]
			}
			if !types.IsKnownState(state) {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %q is not one of %s\n", state, stateList())
			}
			return ctx.withStore(cmd.Context(), func(s *itemstore.Store) error {
				result, err := s.Add(cmd.Context(), title, state)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %q (%s)\n", result, title, state)
				return nil
			})
		},
	}
}

func newUpdateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "update <title> <state>",
		Short: "Change the state of an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(s *itemstore.Store) error {
				if err := s.UpdateState(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "updated %q (%s)\n", args[0], args[1])
				return nil
			})
		},
	}
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <title>...",
		Aliases: []string{"rm"},
		Short:   "Remove items by title",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(s *itemstore.Store) error {
				for _, title := range args {
					if err := s.Remove(cmd.Context(), title); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "removed %q\n", title)
				}
				return nil
			})
		},
	}
}

func newGetCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "get <title>",
		Short: "Show one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(s *itemstore.Store) error {
				item, err := s.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					text, err := transfer.EncodeItem(item)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), text)
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderItems([]types.Item{item}))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the item as JSON")
	return cmd
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var (
		state    string
		asJSON   bool
		page     int
		pageSize int
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List items, optionally filtered by state",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filtered := cmd.Flags().Changed("state")
			return ctx.withStore(cmd.Context(), func(s *itemstore.Store) error {
				out := cmd.OutOrStdout()
				if page > 0 {
					var filter *types.QueryFilter
					if filtered {
						filter = types.StateFilter(state)
					}
					result, err := s.Page(cmd.Context(), types.NewPageRequest(page, pageSize, filter, nil))
					if err != nil {
						return err
					}
					if asJSON {
						return writeJSON(cmd, result)
					}
					fmt.Fprint(out, renderItems(result.Items))
					fmt.Fprintf(out, "page %d, %d of %d items\n", result.Page, len(result.Items), result.Total)
					return nil
				}

				if asJSON {
					var (
						text string
						err  error
					)
					if filtered {
						text, err = s.FetchByStateJSON(cmd.Context(), state)
					} else {
						text, err = s.FetchJSON(cmd.Context())
					}
					// the transfer encoding of zero items is printed even on failure
					fmt.Fprintln(out, text)
					return err
				}

				var (
					items []types.Item
					err   error
				)
				if filtered {
					items, err = s.ListByState(cmd.Context(), state)
				} else {
					items, err = s.ListAll(cmd.Context())
				}
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(out, "No items")
					return nil
				}
				fmt.Fprint(out, renderItems(items))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&state, "state", "s", "", "Only list items in this state")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print items as a JSON array")
	cmd.Flags().IntVar(&page, "page", 0, "Page number (1-based); 0 lists everything")
	cmd.Flags().IntVar(&pageSize, "page-size", 10, "Items per page")
	return cmd
}

func newClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(s *itemstore.Store) error {
				if err := s.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "cleared")
				return nil
			})
		},
	}
}

func renderItems(items []types.Item) string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{item.Title, types.StateLabel(item.State)})
	}
	return renderTable([]string{"Title", "State"}, rows, nil) + "\n"
}

func stateList() string {
	return strings.Join(types.KnownStates(), ", ")
}
