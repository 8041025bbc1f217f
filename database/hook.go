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
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/extra/bundebug"
)

type silentQueriesKey struct{}

// withSilentQueries marks ctx so the query hooks skip every query run with it,
// e.g. the statements of a migration.
func withSilentQueries(ctx context.Context) context.Context {
	return context.WithValue(ctx, silentQueriesKey{}, true)
}

func queriesSilenced(ctx context.Context) bool {
	silent, _ := ctx.Value(silentQueriesKey{}).(bool)
	return silent
}

// SlowQueryHook reports queries slower than a threshold, highlighted by
// operation, to a writer and to the storage logger.
type SlowQueryHook struct {
	slowTime time.Duration
	writer   io.Writer
	logger   Logger
}

var _ bun.QueryHook = (*SlowQueryHook)(nil)

// NewSlowQueryHook returns a hook for queries slower than slowTime. A nil writer
// means stderr.
func NewSlowQueryHook(slowTime time.Duration, w io.Writer, logger Logger) *SlowQueryHook {
	if w == nil {
		w = os.Stderr
	}
	return &SlowQueryHook{slowTime: slowTime, writer: w, logger: loggerOrNop(logger)}
}

func (h *SlowQueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *SlowQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if queriesSilenced(ctx) || event.Err != nil {
		return
	}
	duration := time.Since(event.StartTime)
	if duration <= h.slowTime {
		return
	}
	_, _ = fmt.Fprintln(h.writer,
		time.Now().Format("2006-01-02 15:04:05.000"),
		color.New(color.FgYellow).Sprintf("%15s", "[BUN_SLOW]"),
		fmt.Sprintf("%12s", duration.Round(time.Microsecond)),
		" ", operationColor(event.Operation()).Sprint(event.Query),
	)
	h.logger.Warn("Slow query detected",
		"duration", duration,
		"slow_threshold", h.slowTime,
		"query", event.Query,
	)
}

func operationColor(operation string) *color.Color {
	switch operation {
	case "SELECT":
		return color.New(color.FgGreen)
	case "INSERT":
		return color.New(color.FgBlue)
	case "UPDATE":
		return color.New(color.FgYellow)
	case "DELETE":
		return color.New(color.FgMagenta)
	default:
		return color.New(color.FgRed)
	}
}

// silentQueryHook wraps another hook and drops queries run with a silenced
// context.
type silentQueryHook struct {
	inner bun.QueryHook
}

func (h silentQueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return h.inner.BeforeQuery(ctx, event)
}

func (h silentQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if queriesSilenced(ctx) {
		return
	}
	h.inner.AfterQuery(ctx, event)
}

func addQueryHooks(db *bun.DB, cfg *ConnectionConfig, logger Logger) {
	if cfg.EnableQueryLog {
		db.AddQueryHook(silentQueryHook{inner: bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		)})
	}
	if cfg.SlowQueryTime > 0 {
		db.AddQueryHook(NewSlowQueryHook(cfg.SlowQueryTime, nil, logger))
	}
}
