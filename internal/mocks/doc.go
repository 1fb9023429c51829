// Package mocks provides centralized mock implementations for testing.
//
// Mocks here follow the function-field pattern: each interface method is
// backed by an optional Fn field tests can set, with simple default
// behavior when the field is nil. Handler and middleware tests share these
// instead of redefining inline mocks per test file.
//
//	jwtService := &mocks.MockJWTService{
//		Claims: &auth.Claims{UserID: userID},
//	}
//
// When adding a new mock, name the file after the interface being mocked
// and keep one mock type per file.
package mocks
