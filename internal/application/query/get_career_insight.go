package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ubaya-hub/student-hub/internal/domain/shared"
	"github.com/ubaya-hub/student-hub/internal/domain/student"
	"github.com/ubaya-hub/student-hub/pkg/logger"
	"github.com/ubaya-hub/student-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET CAREER INSIGHT QUERY
// Краткая карьерная сводка по профилю студента от генератора текста.
// Сбой генератора не ошибка: вместо сводки возвращается текст-заглушка.
// ══════════════════════════════════════════════════════════════════════════════

// Тексты-заглушки.
const (
	InsightEmptyMessage = "Unable to generate insight at this time."
	InsightErrorMessage = "Error generating career insight. Please check your connection."
)

// CareerInsightPrompt строит запрос к генератору по профилю.
func CareerInsightPrompt(s student.Student) string {
	var b strings.Builder
	b.WriteString("Based on this student's profile, generate a brief, professional career insight summary (max 100 words).\n")
	fmt.Fprintf(&b, "Name: %s\n", s.Name)
	fmt.Fprintf(&b, "Program: %s\n", s.Program)
	fmt.Fprintf(&b, "About: %s\n", s.AboutMe)
	fmt.Fprintf(&b, "Courses: %s\n", s.CourseList)
	fmt.Fprintf(&b, "Experiences: %s\n", s.Experiences)
	b.WriteString("Focus on their unique strengths and suggest 2 potential job roles.")
	return b.String()
}

// GetCareerInsightQuery - студент, для которого строится сводка.
type GetCareerInsightQuery struct {
	NRP string
}

// CareerInsightResult - сводка или заглушка.
type CareerInsightResult struct {
	NRP     string `json:"nrp"`
	Insight string `json:"insight"`

	// Generated - false, если Insight является заглушкой.
	Generated bool `json:"generated"`
}

// GetCareerInsightHandler обрабатывает запрос.
type GetCareerInsightHandler struct {
	store     student.Store
	generator shared.TextGenerator
	enabled   bool
	latency   time.Duration
	log       *logger.Logger
}

// NewGetCareerInsightHandler создаёт обработчик. При enabled=false каждый
// вызов возвращает ошибку вида shared.ErrFeatureDisabled.
func NewGetCareerInsightHandler(
	store student.Store,
	generator shared.TextGenerator,
	enabled bool,
	latency time.Duration,
	log *logger.Logger,
) *GetCareerInsightHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &GetCareerInsightHandler{
		store:     store,
		generator: generator,
		enabled:   enabled,
		latency:   latency,
		log:       log,
	}
}

// Handle выполняет запрос. Отсутствующий студент - shared.ErrNotFound.
func (h *GetCareerInsightHandler) Handle(ctx context.Context, q GetCareerInsightQuery) (*CareerInsightResult, error) {
	nrp, err := shared.NewNRP(q.NRP)
	if err != nil {
		return nil, err
	}
	q.NRP = nrp.String()
	if !h.enabled {
		return nil, shared.NewDomainError("assistant", "CareerInsight", shared.ErrFeatureDisabled, "career insight is disabled")
	}
	if err := timeutil.Sleep(ctx, h.latency); err != nil {
		return nil, err
	}

	students, err := h.store.LoadStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("career_insight: %w", err)
	}
	idx := student.IndexOf(students, q.NRP)
	if idx < 0 {
		return nil, shared.ErrStudentNotFound
	}

	result := &CareerInsightResult{NRP: q.NRP}
	if h.generator == nil {
		h.log.Warn("career insight requested without a text generator", logger.NRP(q.NRP))
		result.Insight = InsightErrorMessage
		return result, nil
	}

	reply, err := h.generator.GenerateText(ctx, CareerInsightPrompt(students[idx]))
	switch {
	case err != nil:
		h.log.Warn("career insight failed", logger.NRP(q.NRP), logger.Err(err))
		result.Insight = InsightErrorMessage
	case strings.TrimSpace(reply) == "":
		result.Insight = InsightEmptyMessage
	default:
		result.Insight = reply
		result.Generated = true
	}
	return result, nil
}
