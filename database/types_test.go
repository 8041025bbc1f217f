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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFillsDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.Normalize()

	assert.Equal(t, DefaultDataDir(), cfg.ConnectionConfig.DataDir)
	assert.Equal(t, DefaultFileName, cfg.ConnectionConfig.FileName)
	assert.Equal(t, 5*time.Second, cfg.ConnectionConfig.BusyTimeout)
	assert.Equal(t, filepath.Join(DefaultDataDir(), DefaultFileName), cfg.Path())
}

func TestDefaultDataDirEndsWithAppName(t *testing.T) {
	assert.Equal(t, DefaultAppName, filepath.Base(DefaultDataDir()))
}

func TestLoadConfigWithoutFile(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "itemstore.yaml")
	content := `
connection_config:
  data_dir: ` + dir + `
  file_name: custom.sqlite
  busy_timeout: 2s
  enable_query_log: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.ConnectionConfig.DataDir)
	assert.Equal(t, "custom.sqlite", cfg.ConnectionConfig.FileName)
	assert.Equal(t, 2*time.Second, cfg.ConnectionConfig.BusyTimeout)
	assert.True(t, cfg.ConnectionConfig.EnableQueryLog)
	assert.Equal(t, 200*time.Millisecond, cfg.ConnectionConfig.SlowQueryTime)
	assert.Equal(t, filepath.Join(dir, "custom.sqlite"), cfg.Path())
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ITEMSTORE_DATA_DIR", dir)
	t.Setenv("ITEMSTORE_FILE_NAME", "env.sqlite")
	t.Setenv("ITEMSTORE_BUSY_TIMEOUT_MS", "750")
	t.Setenv("ITEMSTORE_SLOW_QUERY_MS", "0")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "env.sqlite"), cfg.Path())
	assert.Equal(t, 750*time.Millisecond, cfg.ConnectionConfig.BusyTimeout)
	assert.Zero(t, cfg.ConnectionConfig.SlowQueryTime)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("connection_config: ["), 0o644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}
