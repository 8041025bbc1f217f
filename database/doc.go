// Package database owns the SQLite file behind the item store: configuration,
// opening and destroying the file, schema migrations, the connection guard that
// serializes every use of the connection, query hooks, and logging.
package database
