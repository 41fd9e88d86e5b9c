package crypto

import (
	"errors"
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	t.Run("valid password", func(t *testing.T) {
		hash, err := HashPassword("correct-horse-battery")
		if err != nil {
			t.Fatalf("HashPassword() error = %v", err)
		}
		if !strings.HasPrefix(hash, "$2a$") {
			t.Errorf("hash has unexpected prefix: %q", hash)
		}
	})

	t.Run("empty password", func(t *testing.T) {
		_, err := HashPassword("")
		if !errors.Is(err, ErrEmptyPassword) {
			t.Errorf("HashPassword(\"\") error = %v, want ErrEmptyPassword", err)
		}
	})

	t.Run("too long password", func(t *testing.T) {
		_, err := HashPassword(strings.Repeat("a", 73))
		if !errors.Is(err, ErrPasswordTooLong) {
			t.Errorf("error = %v, want ErrPasswordTooLong", err)
		}
	})
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	t.Run("correct password", func(t *testing.T) {
		if err := VerifyPassword("secret123", hash); err != nil {
			t.Errorf("VerifyPassword() error = %v", err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		err := VerifyPassword("wrong", hash)
		if !errors.Is(err, ErrPasswordMismatch) {
			t.Errorf("error = %v, want ErrPasswordMismatch", err)
		}
	})

	t.Run("malformed hash", func(t *testing.T) {
		err := VerifyPassword("secret123", "not-a-hash")
		if !errors.Is(err, ErrInvalidHash) {
			t.Errorf("error = %v, want ErrInvalidHash", err)
		}
	})

	t.Run("empty hash", func(t *testing.T) {
		err := VerifyPassword("secret123", "")
		if !errors.Is(err, ErrInvalidHash) {
			t.Errorf("error = %v, want ErrInvalidHash", err)
		}
	})
}

func TestCheckPasswordMatch(t *testing.T) {
	hash, _ := HashPassword("secret123")

	if !CheckPasswordMatch("secret123", hash) {
		t.Error("CheckPasswordMatch() = false for correct password")
	}
	if CheckPasswordMatch("wrong", hash) {
		t.Error("CheckPasswordMatch() = true for wrong password")
	}
}
