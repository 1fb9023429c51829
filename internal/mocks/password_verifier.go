package mocks

import "errors"

// MockPasswordVerifier implements auth.PasswordVerifier for testing.
type MockPasswordVerifier struct {
	// ShouldSucceed determines whether the password comparison succeeds
	// when CompareFn is nil.
	ShouldSucceed bool

	// CompareFn allows for custom comparison logic in tests
	CompareFn func(hashedPassword, password string) error

	// CompareCalledWith stores the arguments passed to Compare for verification
	CompareCalledWith struct {
		HashedPassword string
		Password       string
	}

	// CompareCallCount tracks how many times Compare was called
	CompareCallCount int
}

// Compare implements the auth.PasswordVerifier interface.
func (m *MockPasswordVerifier) Compare(hashedPassword, password string) error {
	m.CompareCalledWith.HashedPassword = hashedPassword
	m.CompareCalledWith.Password = password
	m.CompareCallCount++

	if m.CompareFn != nil {
		return m.CompareFn(hashedPassword, password)
	}

	if m.ShouldSucceed {
		return nil
	}
	return errors.New("password mismatch")
}
