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

// State values used by the task UI. Storage accepts any non-empty string;
// these are conventions, not a closed set.
const (
	StateTodo       = "to-do"
	StateInProgress = "in-progress"
	StateDone       = "done"
)

var stateLabels = map[string]string{
	StateTodo:       "To Do",
	StateInProgress: "In Progress",
	StateDone:       "Done",
}

// KnownStates returns the well-known states in workflow order.
func KnownStates() []string {
	return []string{StateTodo, StateInProgress, StateDone}
}

// IsKnownState reports whether state is one of the well-known states.
func IsKnownState(state string) bool {
	_, ok := stateLabels[state]
	return ok
}

// StateLabel returns the display label of a state, or the state itself when it
// is not a well-known one.
func StateLabel(state string) string {
	if label, ok := stateLabels[state]; ok {
		return label
	}
	return state
}
