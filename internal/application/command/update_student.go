package command

import (
	"context"
	"fmt"

	"github.com/ubaya-hub/student-hub/internal/domain/shared"
	"github.com/ubaya-hub/student-hub/internal/domain/student"
	"github.com/ubaya-hub/student-hub/pkg/datauri"
	"github.com/ubaya-hub/student-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE STUDENT COMMAND
// Replaces a record in place. The NRP cannot change.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateStudentCommand contains the identifier and the full replacement.
type UpdateStudentCommand struct {
	// NRP identifies the record to replace.
	NRP string

	// Student is the full replacement. An empty NRP is taken from the
	// command; a different NRP is rejected.
	Student student.Student
}

// Normalize trims both identifiers and fills the payload NRP from the path
// identifier.
func (c *UpdateStudentCommand) Normalize() {
	c.NRP = shared.CleanNRP(c.NRP)
	c.Student.Normalize()
	if c.Student.NRP == "" {
		c.Student.NRP = c.NRP
	}
}

// Validate checks the identifier and required fields.
func (c UpdateStudentCommand) Validate() error {
	if _, err := shared.NewNRP(c.NRP); err != nil {
		return err
	}
	if c.Student.NRP != c.NRP {
		return shared.ErrNRPMismatch
	}
	return c.Student.Validate()
}

// UpdateStudentResult contains the stored record.
type UpdateStudentResult struct {
	Student student.Student

	// PhotoChanged reports whether photoUrl differs from the previous value.
	PhotoChanged bool
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// UpdateStudentHandler handles UpdateStudentCommand.
type UpdateStudentHandler struct {
	store         student.Store
	env           Env
	photoMaxBytes int
}

// NewUpdateStudentHandler creates a new UpdateStudentHandler.
func NewUpdateStudentHandler(store student.Store, env Env) *UpdateStudentHandler {
	return &UpdateStudentHandler{store: store, env: env, photoMaxBytes: datauri.DefaultMaxBytes}
}

// WithPhotoLimit sets the size limit for an embedded photo sent with the
// record. maxBytes <= 0 keeps datauri.DefaultMaxBytes.
func (h *UpdateStudentHandler) WithPhotoLimit(maxBytes int) *UpdateStudentHandler {
	if maxBytes > 0 {
		h.photoMaxBytes = maxBytes
	}
	return h
}

// Handle executes the command. A missing record returns an error matching
// shared.ErrNotFound.
func (h *UpdateStudentHandler) Handle(ctx context.Context, cmd UpdateStudentCommand) (*UpdateStudentResult, error) {
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
		return nil, fmt.Errorf("update_student: %w", err)
	}
	idx := student.IndexOf(students, cmd.NRP)
	if idx < 0 {
		return nil, shared.ErrStudentNotFound
	}

	photoChanged := students[idx].PhotoURL != cmd.Student.PhotoURL
	if photoChanged && datauri.IsDataURI(cmd.Student.PhotoURL) {
		encoded, err := datauri.Reencode(cmd.Student.PhotoURL, h.photoMaxBytes)
		if err != nil {
			return nil, photoError("UpdateStudent", err)
		}
		cmd.Student.PhotoURL = encoded.URI
	}
	students[idx] = cmd.Student
	if err := h.store.SaveStudents(ctx, students); err != nil {
		return nil, fmt.Errorf("update_student: %w", err)
	}

	h.env.Log.Info("student updated", logger.NRP(cmd.NRP), logger.Bool("photo_changed", photoChanged))
	h.env.publish(shared.NewStudentUpdatedEvent(cmd.NRP, photoChanged))

	return &UpdateStudentResult{Student: cmd.Student, PhotoChanged: photoChanged}, nil
}
