package display

import (
	"log"
	"sync"
	"sync/atomic"

	"twitch-chat-viewer/model"
	"twitch-chat-viewer/telemetry"
)

// Queue передаёт события из горутины чтения в дисплей через ограниченный канал.
// Dispatch никогда не блокирует: при переполнении событие отбрасывается.
type Queue struct {
	events  chan model.ChatEvent
	dropped atomic.Uint64

	mu     sync.RWMutex
	closed bool
}

// NewQueue создаёт очередь на size событий.
func NewQueue(size int) *Queue {
	return &Queue{events: make(chan model.ChatEvent, size)}
}

// Dispatch реализует twitch.Sink.
func (q *Queue) Dispatch(ev model.ChatEvent) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return
	}

	select {
	case q.events <- ev:
	default:
		telemetry.Inc(telemetry.EventsDropped)
		dropped := q.dropped.Add(1)
		if dropped%100 == 0 {
			log.Printf("дисплей: очередь заполнена, всего отброшено %d сообщений", dropped)
		}
	}
}

// Events возвращает канал для дисплея. Канал закрывается вызовом Close.
func (q *Queue) Events() <-chan model.ChatEvent {
	return q.events
}

// Dropped возвращает число событий, отброшенных из-за переполнения.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}

// Close закрывает канал событий; последующие Dispatch игнорируются.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.events)
	}
}
