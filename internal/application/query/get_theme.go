package query

import (
	"context"
	"fmt"

	"github.com/ubaya-hub/student-hub/internal/domain/shared"
)

// GetThemeResult - сохранённая тема.
type GetThemeResult struct {
	Theme shared.Theme `json:"theme"`
}

// GetThemeHandler читает тему. Задержки нет: тема читается один раз при старте.
type GetThemeHandler struct {
	themes shared.ThemeStore
}

// NewGetThemeHandler создаёт обработчик.
func NewGetThemeHandler(themes shared.ThemeStore) *GetThemeHandler {
	return &GetThemeHandler{themes: themes}
}

// Handle выполняет запрос.
func (h *GetThemeHandler) Handle(ctx context.Context) (*GetThemeResult, error) {
	theme, err := h.themes.Theme(ctx)
	if err != nil {
		return nil, fmt.Errorf("get_theme: %w", err)
	}
	return &GetThemeResult{Theme: theme}, nil
}
