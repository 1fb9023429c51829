package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewUser(t *testing.T) {
	t.Parallel()
	validEmail := "test@example.com"
	validPassword := "correct-horse-battery"

	user, err := NewUser(validEmail, validPassword)

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if user.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}

	if user.Email != validEmail {
		t.Errorf("Expected email %s, got %s", validEmail, user.Email)
	}

	if user.Password != validPassword {
		t.Errorf("Expected password to be carried for hashing, got %s", user.Password)
	}

	if user.CreatedAt.IsZero() {
		t.Error("Expected non-zero CreatedAt time")
	}

	// Emails are stored lowercased
	upper, err := NewUser("Test@Example.COM", validPassword)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if upper.Email != "test@example.com" {
		t.Errorf("Expected lowercased email, got %s", upper.Email)
	}

	// Test invalid email
	_, err = NewUser("", validPassword)
	if err != ErrEmptyEmail {
		t.Errorf("Expected error %v, got %v", ErrEmptyEmail, err)
	}

	_, err = NewUser("invalidemail", validPassword)
	if err != ErrInvalidEmail {
		t.Errorf("Expected error %v, got %v", ErrInvalidEmail, err)
	}

	// Test password length bounds
	_, err = NewUser(validEmail, "short")
	if err != ErrPasswordTooShort {
		t.Errorf("Expected error %v, got %v", ErrPasswordTooShort, err)
	}

	_, err = NewUser(validEmail, strings.Repeat("a", 73))
	if err != ErrPasswordTooLong {
		t.Errorf("Expected error %v, got %v", ErrPasswordTooLong, err)
	}
}

func TestUserValidate(t *testing.T) {
	t.Parallel()
	validUser := User{
		ID:             uuid.New(),
		Email:          "test@example.com",
		HashedPassword: "$2a$10$abcdefghijklmnopqrstuv",
	}

	// A stored user carries only the hash
	if err := validUser.Validate(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	invalidUser := validUser
	invalidUser.ID = uuid.Nil
	if err := invalidUser.Validate(); err != ErrEmptyUserID {
		t.Errorf("Expected error %v, got %v", ErrEmptyUserID, err)
	}

	invalidUser = validUser
	invalidUser.HashedPassword = ""
	if err := invalidUser.Validate(); err != ErrEmptyPassword {
		t.Errorf("Expected error %v, got %v", ErrEmptyPassword, err)
	}
}

func TestValidEmail(t *testing.T) {
	t.Parallel()
	validEmails := []string{
		"user@example.com",
		"user.name@example.com",
		"user+tag@example.com",
		"user@sub.example.com",
	}

	invalidEmails := []string{
		"",
		"userexample.com",
		"user@",
		"@example.com",
		"user@.com",
		"user@example",
		"user@example.",
		"user@one@two.com",
	}

	for _, email := range validEmails {
		if !validEmail(email) {
			t.Errorf("Expected email %s to be valid", email)
		}
	}

	for _, email := range invalidEmails {
		if validEmail(email) {
			t.Errorf("Expected email %s to be invalid", email)
		}
	}
}
