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
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/tomoncle/itemstore"
	"github.com/tomoncle/itemstore/database"
	"github.com/tomoncle/itemstore/utils"
)

const envPrefix = "ITEMSTORE"

// commandContext resolves settings from flags, ITEMSTORE_* variables and the
// config file, in that order of precedence. Flag names map to viper keys with
// dashes turned into underscores, so --file-name and ITEMSTORE_FILE_NAME name
// the same setting, matching database.LoadConfig.
type commandContext struct {
	v *viper.Viper
}

func newCommandContext() *commandContext {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return &commandContext{v: v}
}

func (c *commandContext) bindFlags(flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		_ = c.v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
}

func (c *commandContext) configureLogging(stderr io.Writer) {
	utils.ConfigureConsoleWriter(stderr)
	utils.ConfigureConsoleLogFormat(c.v.GetString("log_format"))
	if dir := strings.TrimSpace(c.v.GetString("log_dir")); dir != "" {
		utils.ConfigureFileLog(dir, 0, 0)
	}
	utils.SetAllLoggersLevel(c.v.GetString("log_level"))
	database.InitLogger(database.NewDefaultLogger(utils.NewLogger("ITEMSTORE")))
}

func (c *commandContext) loadConfig() (*database.Config, error) {
	cfg, err := database.LoadConfig(strings.TrimSpace(c.v.GetString("config")))
	if err != nil {
		return nil, err
	}
	cc := &cfg.ConnectionConfig
	if c.v.IsSet("data_dir") {
		if dir := strings.TrimSpace(c.v.GetString("data_dir")); dir != "" {
			cc.DataDir = dir
		}
	}
	if c.v.IsSet("file_name") {
		if name := strings.TrimSpace(c.v.GetString("file_name")); name != "" {
			cc.FileName = name
		}
	}
	if c.v.GetBool("enable_query_log") {
		cc.EnableQueryLog = true
	}
	cfg.Normalize()
	return cfg, nil
}

// withStore opens the store for the duration of fn.
func (c *commandContext) withStore(ctx context.Context, fn func(*itemstore.Store) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	store, err := itemstore.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store at %s: %w", cfg.Path(), err)
	}
	defer func() { _ = store.Close() }()
	return fn(store)
}
