package command

import (
	"context"
	"fmt"

	"github.com/ubaya-hub/student-hub/internal/domain/shared"
	"github.com/ubaya-hub/student-hub/internal/domain/social"
	"github.com/ubaya-hub/student-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADD FRIEND COMMAND
// Moves a student from not-friend to friend. Repeating it changes nothing.
// ══════════════════════════════════════════════════════════════════════════════

// AddFriendCommand names the student to befriend.
type AddFriendCommand struct {
	NRP string
}

// Normalize trims the identifier.
func (c *AddFriendCommand) Normalize() {
	c.NRP = shared.CleanNRP(c.NRP)
}

// Validate checks the identifier.
func (c AddFriendCommand) Validate() error {
	_, err := shared.NewNRP(c.NRP)
	return err
}

// AddFriendResult mirrors {added, totalCount}.
type AddFriendResult struct {
	// Added is false when a link for the NRP already existed.
	Added bool `json:"added"`

	// TotalCount is the number of links after the call.
	TotalCount int `json:"totalCount"`

	// LinkID is the id of the new link, zero when nothing was added.
	LinkID int64 `json:"linkId,omitempty"`
}

// AddFriendHandler handles AddFriendCommand.
type AddFriendHandler struct {
	links social.LinkStore
	env   Env
}

// NewAddFriendHandler creates a new AddFriendHandler.
func NewAddFriendHandler(links social.LinkStore, env Env) *AddFriendHandler {
	return &AddFriendHandler{links: links, env: env}
}

// Handle executes the command. The target is not checked against the
// directory: links may outlive or precede their student.
func (h *AddFriendHandler) Handle(ctx context.Context, cmd AddFriendCommand) (*AddFriendResult, error) {
	cmd.Normalize()
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	unlock, err := h.env.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	links, err := h.links.LoadLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("add_friend: %w", err)
	}
	if social.Contains(links, cmd.NRP) {
		return &AddFriendResult{Added: false, TotalCount: len(links)}, nil
	}

	linkID := h.env.seq.Next(social.MaxLinkID(links))
	updated, added, err := social.Append(links, cmd.NRP, linkID)
	if err != nil {
		return nil, err
	}
	if err := h.links.SaveLinks(ctx, updated); err != nil {
		return nil, fmt.Errorf("add_friend: %w", err)
	}

	h.env.Log.Info("friend added", logger.NRP(cmd.NRP), logger.Int64("link_id", linkID))
	h.env.publish(shared.NewFriendAddedEvent(cmd.NRP, linkID, len(updated)))

	return &AddFriendResult{Added: added, TotalCount: len(updated), LinkID: linkID}, nil
}
