// Package ident содержит внедряемый генератор идентификаторов
// сущностей. Генератор передается явно, а не берется из окружения,
// чтобы id были воспроизводимы под тестами.
package ident

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Source источник уникальных идентификаторов
type Source interface {
	NewID(prefix string) string
}

// UUIDSource генератор на базе UUID v4
type UUIDSource struct{}

// NewID возвращает id вида "prefix-uuid"
func (UUIDSource) NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// SequenceSource детерминированный счетчик для тестов
type SequenceSource struct {
	counter uint64
}

// NewID возвращает id вида "prefix-N"
func (s *SequenceSource) NewID(prefix string) string {
	n := atomic.AddUint64(&s.counter, 1)
	return fmt.Sprintf("%s-%d", prefix, n)
}
