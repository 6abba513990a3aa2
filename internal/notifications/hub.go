package notifications

import (
	"context"
	"sync"
	"time"
)

type Collection string

const (
	Subscriptions Collection = "subscriptions"
	Members       Collection = "household_members"
	Categories    Collection = "categories"
	Settings      Collection = "settings"
	// Dismissals is published when the session dismissed-alert set changes.
	Dismissals Collection = "dismissals"
)

// AllCollections lists the collections derived views depend on.
var AllCollections = []Collection{Subscriptions, Members, Categories, Settings, Dismissals}

type Event struct {
	Type       string      `json:"type"`
	Collection Collection  `json:"collection"`
	Timestamp  time.Time   `json:"timestamp"`
	Data       interface{} `json:"data,omitempty"`
}

type Hub struct {
	mu          sync.RWMutex
	subscribers map[Collection]map[chan Event]struct{}
}

// NewHub создает хаб изменений коллекций.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[Collection]map[chan Event]struct{}),
	}
}

// Subscribe подписывает на изменения перечисленных коллекций и возвращает канал и функцию отписки.
func (h *Hub) Subscribe(collections ...Collection) (<-chan Event, func()) {
	ch := make(chan Event, 10)

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, collection := range collections {
		subs, ok := h.subscribers[collection]
		if !ok {
			subs = make(map[chan Event]struct{})
			h.subscribers[collection] = subs
		}
		subs[ch] = struct{}{}
	}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()

			for _, collection := range collections {
				if subs, exists := h.subscribers[collection]; exists {
					delete(subs, ch)
					if len(subs) == 0 {
						delete(h.subscribers, collection)
					}
				}
			}
			close(ch)
		})
	}
}

// Publish сообщает подписчикам об изменении коллекции. Медленные подписчики пропускают событие.
func (h *Hub) Publish(collection Collection, event Event) {
	event.Collection = collection
	event.Timestamp = time.Now().UTC()
	if event.Type == "" {
		event.Type = "changed"
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[collection] {
		select {
		case ch <- event:
		default:
		}
	}
}

// Changed публикует событие без данных.
func (h *Hub) Changed(collections ...Collection) {
	if h == nil {
		return
	}
	for _, collection := range collections {
		h.Publish(collection, Event{})
	}
}

// Watch вызывает fn сразу и затем после каждого изменения коллекций, пока ctx не отменен.
// Накопившиеся события схлопываются в один вызов.
func (h *Hub) Watch(ctx context.Context, collections []Collection, fn func(ctx context.Context) error) error {
	ch, unsubscribe := h.Subscribe(collections...)
	defer unsubscribe()

	if err := fn(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			drain(ch)
			if err := fn(ctx); err != nil {
				return err
			}
		}
	}
}

func drain(ch <-chan Event) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}
