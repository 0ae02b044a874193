package student

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Store - порт коллекции students. Коллекция читается и пишется целиком:
// сервис загружает срез, меняет его и сохраняет обратно одной записью.
type Store interface {
	// LoadStudents возвращает коллекцию в порядке вставки.
	// Если коллекции нет, хранилище записывает SeedStudents и возвращает их.
	// Нечитаемые данные возвращают ошибку с видом shared.ErrStorageCorrupt.
	LoadStudents(ctx context.Context) ([]Student, error)

	// SaveStudents перезаписывает коллекцию целиком.
	SaveStudents(ctx context.Context, students []Student) error

	// ClearStudents удаляет коллекцию; следующий Load снова запишет seed.
	ClearStudents(ctx context.Context) error
}
