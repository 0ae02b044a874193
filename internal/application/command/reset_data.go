package command

import (
	"context"
	"fmt"

	"github.com/ubaya-hub/student-hub/internal/domain/shared"
)

// ResetDataHandler wipes students, friend links and the theme. The next
// directory read re-seeds.
type ResetDataHandler struct {
	store shared.DataResetter
	env   Env
}

// NewResetDataHandler creates a new ResetDataHandler.
func NewResetDataHandler(store shared.DataResetter, env Env) *ResetDataHandler {
	return &ResetDataHandler{store: store, env: env}
}

// Handle executes the reset.
func (h *ResetDataHandler) Handle(ctx context.Context) error {
	unlock, err := h.env.begin(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if err := h.store.ClearAll(ctx); err != nil {
		return fmt.Errorf("reset_data: %w", err)
	}

	h.env.Log.Warn("all data reset")
	h.env.publish(shared.NewDataResetEvent())
	return nil
}
