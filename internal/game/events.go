package game

import "sync"

// Queue типизированная очередь событий одного продюсера. Продюсер
// (сеть, классификатор) кладет события в любой момент, потребитель
// дренирует их ровно один раз на границе тика — это сохраняет порядок
// и исключает реентерабельную обработку во время итерации.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
}

// NewQueue создает пустую очередь
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{}
}

// Push добавляет событие в конец очереди
func (q *Queue[T]) Push(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()
}

// Drain атомарно забирает все накопленные события
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.mu.Unlock()
	return items
}

// Len текущая длина очереди
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
