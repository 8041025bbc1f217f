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
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultAppName names the per-user data directory.
	DefaultAppName = "itemstore"
	// DefaultFileName is the storage file inside the data directory.
	DefaultFileName = "items.sqlite"
)

// HealthStatus holds the result of a health check against the storage file.
type HealthStatus struct {
	Healthy       bool          `json:"healthy"`
	Path          string        `json:"path"`
	FileExists    bool          `json:"file_exists"`
	SchemaVersion int           `json:"schema_version"`
	TotalItems    int           `json:"total_items"`
	Integrity     bool          `json:"integrity"`
	SchemaDrift   []string      `json:"schema_drift,omitempty"`
	ResponseTime  time.Duration `json:"response_time"`
	LastError     string        `json:"last_error,omitempty"`
	LastCheckTime time.Time     `json:"last_check_time"`
}

// ConnectionConfig describes where the storage file lives and how the
// connection behaves.
type ConnectionConfig struct {
	DataDir        string        `json:"data_dir" yaml:"data_dir"`
	FileName       string        `json:"file_name" yaml:"file_name"`
	BusyTimeout    time.Duration `json:"busy_timeout" yaml:"busy_timeout"`
	EnableQueryLog bool          `json:"enable_query_log" yaml:"enable_query_log"`
	SlowQueryTime  time.Duration `json:"slow_query_time" yaml:"slow_query_time"`
}

// Config aggregates the storage settings.
type Config struct {
	ConnectionConfig ConnectionConfig `json:"connection_config" yaml:"connection_config"`
}

// DefaultConnectionConfig returns a connection config pointing at the per-user
// application data directory.
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		DataDir:       DefaultDataDir(),
		FileName:      DefaultFileName,
		BusyTimeout:   5 * time.Second,
		SlowQueryTime: 200 * time.Millisecond,
	}
}

// DefaultConfig returns a Config with DefaultConnectionConfig.
func DefaultConfig() *Config {
	return &Config{ConnectionConfig: *DefaultConnectionConfig()}
}

// DefaultDataDir returns <user config dir>/itemstore, or a relative directory
// when the platform does not define one.
func DefaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		return DefaultAppName
	}
	return filepath.Join(base, DefaultAppName)
}

// Path returns the full path of the storage file.
func (c *ConnectionConfig) Path() string {
	name := c.FileName
	if name == "" {
		name = DefaultFileName
	}
	return filepath.Join(c.DataDir, name)
}

// Path returns the full path of the storage file.
func (c *Config) Path() string {
	return c.ConnectionConfig.Path()
}

// LoadConfig reads a YAML config file, fills unset fields with defaults and
// applies ITEMSTORE_* environment overrides. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		cfg.merge(&fileCfg)
	}
	cfg.overrideFromEnv()
	return cfg, nil
}

// Normalize fills zero values with defaults.
func (c *Config) Normalize() {
	c.merge(&Config{})
}

func (c *Config) merge(other *Config) {
	def := DefaultConnectionConfig()
	src := other.ConnectionConfig
	dst := &c.ConnectionConfig
	if src.DataDir != "" {
		dst.DataDir = src.DataDir
	}
	if src.FileName != "" {
		dst.FileName = src.FileName
	}
	if src.BusyTimeout > 0 {
		dst.BusyTimeout = src.BusyTimeout
	}
	if src.SlowQueryTime > 0 {
		dst.SlowQueryTime = src.SlowQueryTime
	}
	if src.EnableQueryLog {
		dst.EnableQueryLog = true
	}
	if dst.DataDir == "" {
		dst.DataDir = def.DataDir
	}
	if dst.FileName == "" {
		dst.FileName = def.FileName
	}
	if dst.BusyTimeout <= 0 {
		dst.BusyTimeout = def.BusyTimeout
	}
}

// overrideFromEnv overrides configuration values from environment variables.
func (c *Config) overrideFromEnv() {
	cc := &c.ConnectionConfig
	if dir := os.Getenv("ITEMSTORE_DATA_DIR"); dir != "" {
		cc.DataDir = dir
	}
	if name := os.Getenv("ITEMSTORE_FILE_NAME"); name != "" {
		cc.FileName = name
	}
	if busy := os.Getenv("ITEMSTORE_BUSY_TIMEOUT_MS"); busy != "" {
		if val, err := strconv.Atoi(busy); err == nil && val > 0 {
			cc.BusyTimeout = time.Duration(val) * time.Millisecond
		}
	}
	if enable := os.Getenv("ITEMSTORE_ENABLE_QUERY_LOG"); enable != "" {
		cc.EnableQueryLog = strings.EqualFold(enable, "true") || enable == "1"
	}
	if slow := os.Getenv("ITEMSTORE_SLOW_QUERY_MS"); slow != "" {
		if val, err := strconv.Atoi(slow); err == nil {
			cc.SlowQueryTime = time.Duration(val) * time.Millisecond
		}
	}
}
