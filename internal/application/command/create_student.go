package command

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ubaya-hub/student-hub/internal/domain/shared"
	"github.com/ubaya-hub/student-hub/internal/domain/student"
	"github.com/ubaya-hub/student-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE STUDENT COMMAND
// Appends a new record to the directory. The NRP must be unique.
// ══════════════════════════════════════════════════════════════════════════════

// CreateStudentCommand contains the record to add.
type CreateStudentCommand struct {
	Student student.Student
}

// Normalize trims the identifier of the new record.
func (c *CreateStudentCommand) Normalize() {
	c.Student.Normalize()
}

// Validate checks required fields.
func (c CreateStudentCommand) Validate() error {
	return c.Student.Validate()
}

// CreateStudentResult contains the stored record.
type CreateStudentResult struct {
	// Student is the record as persisted, with defaults applied.
	Student student.Student

	// Total is the directory size after the insert.
	Total int
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// CreateStudentHandler handles CreateStudentCommand.
type CreateStudentHandler struct {
	store student.Store
	env   Env
}

// NewCreateStudentHandler creates a new CreateStudentHandler.
func NewCreateStudentHandler(store student.Store, env Env) *CreateStudentHandler {
	return &CreateStudentHandler{store: store, env: env}
}

// Handle executes the command. A duplicate NRP returns an error matching
// shared.ErrAlreadyExists and leaves the collection unchanged.
func (h *CreateStudentHandler) Handle(ctx context.Context, cmd CreateStudentCommand) (*CreateStudentResult, error) {
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
		return nil, fmt.Errorf("create_student: %w", err)
	}
	if student.IndexOf(students, cmd.Student.NRP) >= 0 {
		return nil, shared.ErrStudentAlreadyExists
	}

	record := cmd.Student.WithDefaults(strconv.FormatInt(h.env.Clock().UnixMilli(), 10))
	students = append(students, record)
	if err := h.store.SaveStudents(ctx, students); err != nil {
		return nil, fmt.Errorf("create_student: %w", err)
	}

	h.env.Log.Info("student created", logger.NRP(record.NRP), logger.Int("total", len(students)))
	h.env.publish(shared.NewStudentRegisteredEvent(record.NRP, record.Name, record.Email, record.Program.String()))

	return &CreateStudentResult{Student: record, Total: len(students)}, nil
}
