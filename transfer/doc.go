// Package transfer turns repository results into the JSON text handed to the
// UI and command layer.
package transfer
