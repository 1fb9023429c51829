// Package postgres provides PostgreSQL-backed implementations of the data
// storage interfaces defined in the internal/store package, plus the task
// store consumed by the background runner. It owns query execution, row
// scanning, and the mapping of driver errors onto store sentinel errors.
package postgres
