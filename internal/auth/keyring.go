package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type keyEntry struct {
	key       []byte
	expiresAt time.Time
}

type Keyring struct {
	mu   sync.RWMutex
	data map[uuid.UUID]keyEntry
	now  func() time.Time
}

// NewKeyring создает пустое хранилище ключей.
func NewKeyring(now func() time.Time) *Keyring {
	if now == nil {
		now = time.Now
	}
	return &Keyring{data: make(map[uuid.UUID]keyEntry), now: now}
}

// Put сохраняет ключ сессии на ttl.
func (k *Keyring) Put(sessionID uuid.UUID, key []byte, ttl time.Duration) {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.data[sessionID] = keyEntry{
		key:       append([]byte(nil), key...),
		expiresAt: k.now().Add(ttl),
	}
}

// Get возвращает ключ, если сессия не истекла. Истекшие записи удаляются.
func (k *Keyring) Get(sessionID uuid.UUID) ([]byte, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	e, ok := k.data[sessionID]
	if !ok {
		return nil, false
	}
	if k.now().After(e.expiresAt) {
		delete(k.data, sessionID)
		return nil, false
	}
	return e.key, true
}

// Delete удаляет ключ сессии.
func (k *Keyring) Delete(sessionID uuid.UUID) {
	k.mu.Lock()
	defer k.mu.Unlock()

	delete(k.data, sessionID)
}

// Clear удаляет все ключи, например после смены PIN.
func (k *Keyring) Clear() {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.data = make(map[uuid.UUID]keyEntry)
}

// Sweep удаляет истекшие записи и возвращает их количество.
func (k *Keyring) Sweep() int {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	removed := 0
	for id, e := range k.data {
		if now.After(e.expiresAt) {
			delete(k.data, id)
			removed++
		}
	}
	return removed
}

// Len возвращает количество записей.
func (k *Keyring) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()

	return len(k.data)
}
