package store_test

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/flowiq/flowiq-api/internal/store"
	"github.com/stretchr/testify/assert"
)

// Compile-time checks that both a database handle and a transaction
// satisfy the DBTX abstraction the stores are written against.
var (
	_ store.DBTX = (*sql.DB)(nil)
	_ store.DBTX = (*sql.Tx)(nil)
)

// TestErrorDefinitions ensures that the error definitions in the store
// package are defined as expected and can be used with errors.Is.
func TestErrorDefinitions(t *testing.T) {
	t.Parallel()

	// Create functions that return the standard errors
	// This simulates how store implementations might return these errors
	userNotFoundFn := func() error {
		return store.ErrUserNotFound
	}

	emailExistsFn := func() error {
		return store.ErrEmailExists
	}

	cycleExistsFn := func() error {
		return store.ErrCycleExists
	}

	// Test ErrUserNotFound
	t.Run("ErrUserNotFound", func(t *testing.T) {
		t.Parallel()

		err := userNotFoundFn()

		// Verify it can be detected with errors.Is, both as itself and as
		// the generic ErrNotFound it wraps
		assert.True(t, errors.Is(err, store.ErrUserNotFound))
		assert.True(t, errors.Is(err, store.ErrNotFound))
		assert.False(t, errors.Is(err, store.ErrEmailExists))

		// Verify the error message
		assert.Equal(t, "entity not found: user", err.Error())
	})

	// Test ErrEmailExists
	t.Run("ErrEmailExists", func(t *testing.T) {
		t.Parallel()

		err := emailExistsFn()

		assert.True(t, errors.Is(err, store.ErrEmailExists))
		assert.True(t, errors.Is(err, store.ErrDuplicate))
		assert.False(t, errors.Is(err, store.ErrUserNotFound))

		// Verify the error message
		assert.Equal(t, "entity already exists: email", err.Error())
	})

	// Test ErrCycleExists
	t.Run("ErrCycleExists", func(t *testing.T) {
		t.Parallel()

		err := cycleExistsFn()

		assert.True(t, errors.Is(err, store.ErrCycleExists))
		assert.True(t, errors.Is(err, store.ErrDuplicate))
		assert.False(t, errors.Is(err, store.ErrNotFound))

		assert.Equal(t, "entity already exists: cycle start date", err.Error())
	})
}

// TestNotFoundSentinelsAreDistinct verifies that the entity-specific not
// found errors never match each other, only their shared ErrNotFound base.
// Handlers rely on this to map store failures to the right resource.
func TestNotFoundSentinelsAreDistinct(t *testing.T) {
	t.Parallel()

	sentinels := map[string]error{
		"user":    store.ErrUserNotFound,
		"cycle":   store.ErrCycleNotFound,
		"insight": store.ErrInsightNotFound,
		"task":    store.ErrTaskNotFound,
	}

	for name, err := range sentinels {
		assert.True(t, errors.Is(err, store.ErrNotFound), "%s should wrap ErrNotFound", name)
		for otherName, other := range sentinels {
			if name == otherName {
				continue
			}
			assert.False(t, errors.Is(err, other),
				"%s sentinel should not match %s sentinel", name, otherName)
		}
	}
}
