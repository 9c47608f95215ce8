// Package types defines the Store and Table interfaces, the Record and
// Result types, and the standard errors shared by every recordstore backend.
package types
