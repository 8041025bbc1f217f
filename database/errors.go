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
	"errors"
	"strings"
)

var (
	// ErrNotInstalled is the panic value of a Guard accessor called before
	// any connection was installed.
	ErrNotInstalled = errors.New("database: connection guard used before install")
	// ErrStoreClosed is returned by Guard accessors after the connection was
	// closed or its file destroyed.
	ErrStoreClosed = errors.New("database: store is closed")
	// ErrUnsupportedSchemaVersion reports a file written by a newer schema.
	ErrUnsupportedSchemaVersion = errors.New("database: unsupported schema version")
)

type SQLError int

const (
	UnknownErr SQLError = iota
	NoTableErr
	NoColumnErr
	NoIndexErr
	ExistTableErr
	ExistIndexErr
	DuplicateKeyErr
	NotNullViolationErr
	CheckConstraintViolationErr
	BusyErr
	ReadOnlyErr
	CorruptErr
)

func (e SQLError) String() string {
	switch e {
	case NoTableErr:
		return "no_table"
	case NoColumnErr:
		return "no_column"
	case NoIndexErr:
		return "no_index"
	case ExistTableErr:
		return "table_exists"
	case ExistIndexErr:
		return "index_exists"
	case DuplicateKeyErr:
		return "duplicate_key"
	case NotNullViolationErr:
		return "not_null"
	case CheckConstraintViolationErr:
		return "check_constraint"
	case BusyErr:
		return "busy"
	case ReadOnlyErr:
		return "read_only"
	case CorruptErr:
		return "corrupt"
	default:
		return "unknown"
	}
}

const (
	sqliteBusyCode     = 5
	sqliteLockedCode   = 6
	sqliteReadOnlyCode = 8
	sqliteCorruptCode  = 11
)

// ClassifySQLiteError maps a driver error to an SQLError. The boolean is false
// when err is nil or not recognised as an SQLite failure.
func ClassifySQLiteError(err error) (is bool, sqlErr SQLError) {
	if err == nil {
		return false, UnknownErr
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) {
		switch coder.Code() & 0xff {
		case sqliteBusyCode, sqliteLockedCode:
			return true, BusyErr
		case sqliteReadOnlyCode:
			return true, ReadOnlyErr
		case sqliteCorruptCode:
			return true, CorruptErr
		}
	}
	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "no such table"):
		return true, NoTableErr
	case strings.Contains(s, "no such column"):
		return true, NoColumnErr
	case strings.Contains(s, "no such index"):
		return true, NoIndexErr
	case strings.Contains(s, "already exists") && strings.Contains(s, "index"):
		return true, ExistIndexErr
	case strings.Contains(s, "already exists") && strings.Contains(s, "table"):
		return true, ExistTableErr
	case strings.Contains(s, "unique constraint failed"):
		return true, DuplicateKeyErr
	case strings.Contains(s, "not null constraint failed"):
		return true, NotNullViolationErr
	case strings.Contains(s, "check constraint failed"):
		return true, CheckConstraintViolationErr
	case strings.Contains(s, "database is locked"), strings.Contains(s, "sqlite_busy"):
		return true, BusyErr
	case strings.Contains(s, "readonly database"):
		return true, ReadOnlyErr
	case strings.Contains(s, "malformed"), strings.Contains(s, "not a database"):
		return true, CorruptErr
	}
	return false, UnknownErr
}
