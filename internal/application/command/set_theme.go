package command

import (
	"context"
	"fmt"

	"github.com/ubaya-hub/student-hub/internal/domain/shared"
	"github.com/ubaya-hub/student-hub/pkg/logger"
)

// SetThemeCommand names the theme to persist. Toggle flips the stored
// value and ignores Theme.
type SetThemeCommand struct {
	Theme  string
	Toggle bool
}

// SetThemeResult contains the theme now stored.
type SetThemeResult struct {
	Theme shared.Theme `json:"theme"`
}

// SetThemeHandler handles SetThemeCommand.
type SetThemeHandler struct {
	themes shared.ThemeStore
	env    Env
}

// NewSetThemeHandler creates a new SetThemeHandler.
func NewSetThemeHandler(themes shared.ThemeStore, env Env) *SetThemeHandler {
	return &SetThemeHandler{themes: themes, env: env}
}

// Handle executes the command.
func (h *SetThemeHandler) Handle(ctx context.Context, cmd SetThemeCommand) (*SetThemeResult, error) {
	var (
		theme shared.Theme
		err   error
	)
	if !cmd.Toggle {
		if theme, err = shared.NewTheme(cmd.Theme); err != nil {
			return nil, err
		}
	}

	unlock, err := h.env.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if cmd.Toggle {
		current, err := h.themes.Theme(ctx)
		if err != nil {
			return nil, fmt.Errorf("set_theme: %w", err)
		}
		theme = current.Toggle()
	}

	if err := h.themes.SetTheme(ctx, theme); err != nil {
		return nil, fmt.Errorf("set_theme: %w", err)
	}

	h.env.Log.Debug("theme changed", logger.String("theme", theme.String()))
	h.env.publish(shared.NewThemeChangedEvent(theme))

	return &SetThemeResult{Theme: theme}, nil
}
