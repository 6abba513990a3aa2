package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	PBKDF2Iterations = 100000
	KeyLength        = 32
	SaltLength       = 16
	NonceLength      = 12
)

var ErrInvalidSalt = errors.New("invalid salt")

type PinVerification struct {
	VerifyHash  string
	VerifySalt  string
	EncryptSalt string
}

// GenerateSalt возвращает случайную соль в base64.
func GenerateSalt() (string, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(salt), nil
}

// CreatePinVerification создает хэш для проверки PIN и отдельную соль для ключа шифрования.
func CreatePinVerification(pin string) (PinVerification, error) {
	verifySalt, err := GenerateSalt()
	if err != nil {
		return PinVerification{}, err
	}
	encryptSalt, err := GenerateSalt()
	if err != nil {
		return PinVerification{}, err
	}

	hash, err := deriveHash(pin, verifySalt)
	if err != nil {
		return PinVerification{}, err
	}

	return PinVerification{VerifyHash: hash, VerifySalt: verifySalt, EncryptSalt: encryptSalt}, nil
}

// VerifyPin сравнивает PIN с сохраненным хэшем в константное время.
func VerifyPin(pin, storedHash, verifySalt string) bool {
	hash, err := deriveHash(pin, verifySalt)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(hash), []byte(storedHash)) == 1
}

// DeriveKey выводит 256-битный ключ AES из PIN и соли шифрования.
func DeriveKey(pin, encryptSalt string) ([]byte, error) {
	salt, err := base64.StdEncoding.DecodeString(encryptSalt)
	if err != nil {
		return nil, ErrInvalidSalt
	}
	return pbkdf2.Key([]byte(pin), salt, PBKDF2Iterations, KeyLength, sha256.New), nil
}

// EncryptNote шифрует текст AES-256-GCM и возвращает base64(iv).base64(ciphertext).
func EncryptNote(plaintext string, key []byte) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, NonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(nonce) + "." + base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptNote расшифровывает заметку. Неверный ключ или поврежденные данные дают ("", false).
func DecryptNote(encrypted string, key []byte) (string, bool) {
	ivPart, ctPart, found := strings.Cut(encrypted, ".")
	if !found || ivPart == "" || ctPart == "" {
		return "", false
	}

	nonce, err := base64.StdEncoding.DecodeString(ivPart)
	if err != nil || len(nonce) != NonceLength {
		return "", false
	}
	ciphertext, err := base64.StdEncoding.DecodeString(ctPart)
	if err != nil {
		return "", false
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", false
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", false
	}
	return string(plaintext), true
}

func deriveHash(pin, verifySalt string) (string, error) {
	key, err := DeriveKey(pin, verifySalt)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeyLength {
		return nil, fmt.Errorf("invalid key length %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
