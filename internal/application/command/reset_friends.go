package command

import (
	"context"
	"fmt"

	"github.com/ubaya-hub/student-hub/internal/domain/shared"
	"github.com/ubaya-hub/student-hub/internal/domain/social"
	"github.com/ubaya-hub/student-hub/pkg/logger"
)

// ResetFriendsResult reports how many links were dropped.
type ResetFriendsResult struct {
	Removed int
}

// ResetFriendsHandler clears every friend link unconditionally.
type ResetFriendsHandler struct {
	links social.LinkStore
	env   Env
}

// NewResetFriendsHandler creates a new ResetFriendsHandler.
func NewResetFriendsHandler(links social.LinkStore, env Env) *ResetFriendsHandler {
	return &ResetFriendsHandler{links: links, env: env}
}

// Handle executes the reset.
func (h *ResetFriendsHandler) Handle(ctx context.Context) (*ResetFriendsResult, error) {
	unlock, err := h.env.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	links, err := h.links.LoadLinks(ctx)
	if err != nil && !shared.IsStorageCorrupt(err) {
		return nil, fmt.Errorf("reset_friends: %w", err)
	}
	if err := h.links.ClearLinks(ctx); err != nil {
		return nil, fmt.Errorf("reset_friends: %w", err)
	}

	h.env.Log.Info("friends reset", logger.Int("removed", len(links)))
	h.env.publish(shared.NewFriendsResetEvent(len(links)))

	return &ResetFriendsResult{Removed: len(links)}, nil
}
