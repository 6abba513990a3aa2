package alerts

import (
	"sync"

	"example.com/subtracker/backend/internal/models"
)

type DismissedSet struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewDismissedSet создает пустой набор скрытых оповещений.
func NewDismissedSet() *DismissedSet {
	return &DismissedSet{ids: make(map[string]struct{})}
}

// Dismiss скрывает оповещение до конца сессии.
func (s *DismissedSet) Dismiss(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ids[key.String()] = struct{}{}
}

// Contains сообщает, скрыто ли оповещение с данным ключом.
func (s *DismissedSet) Contains(key Key) bool {
	return s.ContainsID(key.String())
}

// ContainsID сообщает, скрыто ли оповещение с данным id.
func (s *DismissedSet) ContainsID(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.hidden(id)
}

func (s *DismissedSet) hidden(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len возвращает количество скрытых оповещений.
func (s *DismissedSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.ids)
}

// Filter возвращает новый список без скрытых оповещений.
func (s *DismissedSet) Filter(alerts []models.Alert) []models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Alert, 0, len(alerts))
	for _, alert := range alerts {
		if s.hidden(alert.ID) {
			continue
		}
		out = append(out, alert)
	}
	return out
}

// Reset очищает набор.
func (s *DismissedSet) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ids = make(map[string]struct{})
}
