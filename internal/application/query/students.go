// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/ubaya-hub/student-hub/internal/domain/shared"
	"github.com/ubaya-hub/student-hub/internal/domain/student"
	"github.com/ubaya-hub/student-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// DIRECTORY QUERIES
// Чтение каталога студентов. Каждая операция ждёт настроенную задержку,
// затем читает коллекцию целиком.
// ══════════════════════════════════════════════════════════════════════════════

// ListStudentsResult - полный снимок каталога в порядке вставки.
type ListStudentsResult struct {
	Students []student.Student `json:"students"`
	Total    int               `json:"total"`
}

// ListStudentsHandler возвращает весь каталог.
type ListStudentsHandler struct {
	store   student.Store
	latency time.Duration
}

// NewListStudentsHandler создаёт обработчик.
func NewListStudentsHandler(store student.Store, latency time.Duration) *ListStudentsHandler {
	return &ListStudentsHandler{store: store, latency: latency}
}

// Handle выполняет запрос.
func (h *ListStudentsHandler) Handle(ctx context.Context) (*ListStudentsResult, error) {
	if err := timeutil.Sleep(ctx, h.latency); err != nil {
		return nil, err
	}
	students, err := h.store.LoadStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list_students: %w", err)
	}
	return &ListStudentsResult{Students: students, Total: len(students)}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// GetStudent
// ─────────────────────────────────────────────────────────────────────────────

// GetStudentQuery - поиск по NRP.
type GetStudentQuery struct {
	NRP string
}

// Normalize обрезает пробелы вокруг NRP.
func (q *GetStudentQuery) Normalize() {
	q.NRP = shared.CleanNRP(q.NRP)
}

// Validate проверяет идентификатор.
func (q GetStudentQuery) Validate() error {
	_, err := shared.NewNRP(q.NRP)
	return err
}

// GetStudentHandler возвращает одну запись.
type GetStudentHandler struct {
	store   student.Store
	latency time.Duration
}

// NewGetStudentHandler создаёт обработчик.
func NewGetStudentHandler(store student.Store, latency time.Duration) *GetStudentHandler {
	return &GetStudentHandler{store: store, latency: latency}
}

// Handle возвращает запись или ошибку вида shared.ErrNotFound.
func (h *GetStudentHandler) Handle(ctx context.Context, q GetStudentQuery) (*student.Student, error) {
	q.Normalize()
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := timeutil.Sleep(ctx, h.latency); err != nil {
		return nil, err
	}
	students, err := h.store.LoadStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("get_student: %w", err)
	}
	idx := student.IndexOf(students, q.NRP)
	if idx < 0 {
		return nil, shared.ErrStudentNotFound
	}
	found := students[idx]
	return &found, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// SearchStudents
// ─────────────────────────────────────────────────────────────────────────────

// SearchStudentsQuery - строка поиска. Пустая строка возвращает всех.
type SearchStudentsQuery struct {
	Query string
}

// SearchStudentsResult - найденные записи в порядке вставки.
type SearchStudentsResult struct {
	Query    string            `json:"query"`
	Students []student.Student `json:"students"`
	Total    int               `json:"total"`
}

// SearchStudentsHandler фильтрует каталог правилом student.MatchesQuery.
type SearchStudentsHandler struct {
	store   student.Store
	latency time.Duration
}

// NewSearchStudentsHandler создаёт обработчик.
func NewSearchStudentsHandler(store student.Store, latency time.Duration) *SearchStudentsHandler {
	return &SearchStudentsHandler{store: store, latency: latency}
}

// Handle выполняет поиск.
func (h *SearchStudentsHandler) Handle(ctx context.Context, q SearchStudentsQuery) (*SearchStudentsResult, error) {
	if err := timeutil.Sleep(ctx, h.latency); err != nil {
		return nil, err
	}
	students, err := h.store.LoadStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("search_students: %w", err)
	}
	matched := student.Filter(students, q.Query)
	return &SearchStudentsResult{Query: q.Query, Students: matched, Total: len(matched)}, nil
}
