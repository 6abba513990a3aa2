package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// TestPinVerification проверяет создание и проверку PIN.
func TestPinVerification(t *testing.T) {
	verification, err := CreatePinVerification("1234")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if verification.VerifySalt == verification.EncryptSalt {
		t.Fatal("verify and encrypt salts must differ")
	}

	if !VerifyPin("1234", verification.VerifyHash, verification.VerifySalt) {
		t.Fatal("expected correct pin to verify")
	}
	if VerifyPin("4321", verification.VerifyHash, verification.VerifySalt) {
		t.Fatal("expected wrong pin to fail")
	}
	if VerifyPin("1234", verification.VerifyHash, "%%%") {
		t.Fatal("expected malformed salt to fail")
	}
}

// TestEncryptDecryptNote проверяет шифрование заметки и отказ с чужим ключом.
func TestEncryptDecryptNote(t *testing.T) {
	verification, err := CreatePinVerification("2468")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	key, err := DeriveKey("2468", verification.EncryptSalt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(key) != KeyLength {
		t.Fatalf("expected %d byte key, got %d", KeyLength, len(key))
	}

	encrypted, err := EncryptNote("account 42, pin hint blue", key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Count(encrypted, ".") != 1 {
		t.Fatalf("unexpected format %q", encrypted)
	}

	plaintext, ok := DecryptNote(encrypted, key)
	if !ok || plaintext != "account 42, pin hint blue" {
		t.Fatalf("unexpected plaintext %q (%v)", plaintext, ok)
	}

	wrongKey, err := DeriveKey("0000", verification.EncryptSalt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := DecryptNote(encrypted, wrongKey); ok {
		t.Fatal("expected wrong key to fail")
	}

	for _, malformed := range []string{"", "abc", ".", "abc.def", "!!!.???"} {
		if _, ok := DecryptNote(malformed, key); ok {
			t.Fatalf("expected %q to fail", malformed)
		}
	}
}

// TestSessionToken проверяет выпуск и разбор токена сессии.
func TestSessionToken(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	manager := NewTokenManager("secret", "subtracker", 15*time.Minute, clock)

	session, err := manager.NewSession()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	id, err := manager.ParseSession(session.Token)
	if err != nil || id != session.ID {
		t.Fatalf("expected session id %s, got %s (%v)", session.ID, id, err)
	}

	other := NewTokenManager("other", "subtracker", 15*time.Minute, clock)
	if _, err := other.ParseSession(session.Token); err == nil {
		t.Fatal("expected signature mismatch")
	}

	now = now.Add(time.Hour)
	if _, err := manager.ParseSession(session.Token); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

// TestKeyringExpiry проверяет удаление истекших ключей.
func TestKeyringExpiry(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	keyring := NewKeyring(func() time.Time { return now })
	id := uuid.New()

	keyring.Put(id, []byte("k"), time.Minute)
	if key, ok := keyring.Get(id); !ok || string(key) != "k" {
		t.Fatal("expected key")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := keyring.Get(id); ok {
		t.Fatal("expected key to expire")
	}
	if keyring.Len() != 0 {
		t.Fatal("expected expired entry to be removed")
	}

	keyring.Put(id, []byte("k"), time.Minute)
	now = now.Add(2 * time.Minute)
	if removed := keyring.Sweep(); removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
}

// TestSessionMiddleware проверяет доступ только для разблокированной сессии.
func TestSessionMiddleware(t *testing.T) {
	manager := NewTokenManager("secret", "subtracker", time.Minute, nil)
	keyring := NewKeyring(nil)
	session, err := manager.NewSession()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e := echo.New()
	handler := SessionMiddleware(manager, keyring)(func(c echo.Context) error {
		id, key, ok := SessionFromContext(c)
		if !ok || id != session.ID || string(key) != "key" {
			t.Fatal("expected session in context")
		}
		return c.NoContent(http.StatusNoContent)
	})

	call := func(header string) error {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		return handler(e.NewContext(req, httptest.NewRecorder()))
	}

	if err := call(""); err == nil {
		t.Fatal("expected missing header to fail")
	}
	if err := call("Bearer " + session.Token); err == nil {
		t.Fatal("expected locked session to fail")
	}

	keyring.Put(session.ID, []byte("key"), time.Minute)
	if err := call("Bearer " + session.Token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	keyring.Delete(session.ID)
	if err := call("Bearer " + session.Token); err == nil {
		t.Fatal("expected lock to revoke access")
	}
}
