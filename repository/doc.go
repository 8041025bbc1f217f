// Package repository implements item persistence on top of a connection that the
// caller already holds through database.Guard. Nothing in here locks.
package repository
