package command

import (
	"context"
	"fmt"

	"github.com/ubaya-hub/student-hub/internal/domain/shared"
	"github.com/ubaya-hub/student-hub/internal/domain/student"
	"github.com/ubaya-hub/student-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELETE STUDENT COMMAND
// Removes a record. Deleting a missing NRP is a successful no-op.
// Friend links pointing at the record are left alone and filtered on read.
// ══════════════════════════════════════════════════════════════════════════════

// DeleteStudentCommand identifies the record to remove.
type DeleteStudentCommand struct {
	NRP string
}

// Normalize trims the identifier.
func (c *DeleteStudentCommand) Normalize() {
	c.NRP = shared.CleanNRP(c.NRP)
}

// Validate checks the identifier.
func (c DeleteStudentCommand) Validate() error {
	_, err := shared.NewNRP(c.NRP)
	return err
}

// DeleteStudentResult reports what happened.
type DeleteStudentResult struct {
	// Deleted is false when no record had the NRP.
	Deleted bool
}

// DeleteStudentHandler handles DeleteStudentCommand.
type DeleteStudentHandler struct {
	store student.Store
	env   Env
}

// NewDeleteStudentHandler creates a new DeleteStudentHandler.
func NewDeleteStudentHandler(store student.Store, env Env) *DeleteStudentHandler {
	return &DeleteStudentHandler{store: store, env: env}
}

// Handle executes the command.
func (h *DeleteStudentHandler) Handle(ctx context.Context, cmd DeleteStudentCommand) (*DeleteStudentResult, error) {
	cmd.Normalize()
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	unlock, err := h.env.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	students, err := h.store.LoadStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("delete_student: %w", err)
	}

	idx := student.IndexOf(students, cmd.NRP)
	if idx < 0 {
		return &DeleteStudentResult{Deleted: false}, nil
	}

	remaining := make([]student.Student, 0, len(students)-1)
	remaining = append(remaining, students[:idx]...)
	remaining = append(remaining, students[idx+1:]...)
	if err := h.store.SaveStudents(ctx, remaining); err != nil {
		return nil, fmt.Errorf("delete_student: %w", err)
	}

	h.env.Log.Info("student deleted", logger.NRP(cmd.NRP))
	h.env.publish(shared.NewStudentDeletedEvent(cmd.NRP))

	return &DeleteStudentResult{Deleted: true}, nil
}
