package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/ubaya-hub/student-hub/internal/domain/shared"
	"github.com/ubaya-hub/student-hub/internal/domain/student"
	"github.com/ubaya-hub/student-hub/pkg/datauri"
	"github.com/ubaya-hub/student-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPLOAD PHOTO COMMAND
// Embeds an image into the student's photoUrl as a data: URI.
// ══════════════════════════════════════════════════════════════════════════════

// UploadPhotoCommand carries the raw image.
type UploadPhotoCommand struct {
	NRP  string
	Data []byte
}

// Normalize trims the identifier.
func (c *UploadPhotoCommand) Normalize() {
	c.NRP = shared.CleanNRP(c.NRP)
}

// Validate checks the identifier and that some bytes were sent.
func (c UploadPhotoCommand) Validate() error {
	if _, err := shared.NewNRP(c.NRP); err != nil {
		return err
	}
	if len(c.Data) == 0 {
		return shared.ErrPhotoRejected
	}
	return nil
}

// UploadPhotoResult describes the stored photo.
type UploadPhotoResult struct {
	Student  student.Student
	MIMEType string
	Size     int
}

// UploadPhotoHandler handles UploadPhotoCommand.
type UploadPhotoHandler struct {
	store    student.Store
	env      Env
	maxBytes int
	enabled  bool
}

// NewUploadPhotoHandler creates a new UploadPhotoHandler. maxBytes <= 0 uses
// datauri.DefaultMaxBytes.
func NewUploadPhotoHandler(store student.Store, env Env, maxBytes int, enabled bool) *UploadPhotoHandler {
	if maxBytes <= 0 {
		maxBytes = datauri.DefaultMaxBytes
	}
	return &UploadPhotoHandler{store: store, env: env, maxBytes: maxBytes, enabled: enabled}
}

// Handle executes the command.
func (h *UploadPhotoHandler) Handle(ctx context.Context, cmd UploadPhotoCommand) (*UploadPhotoResult, error) {
	cmd.Normalize()
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if !h.enabled {
		return nil, shared.NewDomainError("student", "UploadPhoto", shared.ErrFeatureDisabled, "photo upload is disabled")
	}

	encoded, err := datauri.EncodeImage(cmd.Data, h.maxBytes)
	if err != nil {
		return nil, photoError("UploadPhoto", err)
	}

	unlock, err := h.env.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	students, err := h.store.LoadStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("upload_photo: %w", err)
	}
	idx := student.IndexOf(students, cmd.NRP)
	if idx < 0 {
		return nil, shared.ErrStudentNotFound
	}

	students[idx].PhotoURL = encoded.URI
	if err := h.store.SaveStudents(ctx, students); err != nil {
		return nil, fmt.Errorf("upload_photo: %w", err)
	}

	h.env.Log.Info("photo uploaded",
		logger.NRP(cmd.NRP),
		logger.String("mime", encoded.MIMEType),
		logger.Int("bytes", encoded.Size),
	)
	h.env.publish(shared.NewStudentUpdatedEvent(cmd.NRP, true))

	return &UploadPhotoResult{
		Student:  students[idx],
		MIMEType: encoded.MIMEType,
		Size:     encoded.Size,
	}, nil
}

func photoError(op string, err error) error {
	switch {
	case errors.Is(err, datauri.ErrTooLarge):
		return shared.WrapError("student", op, shared.ErrInvalidInput, "photo is too large", err)
	case errors.Is(err, datauri.ErrNotImage), errors.Is(err, datauri.ErrEmpty):
		return shared.WrapError("student", op, shared.ErrInvalidInput, "photo must be a non-empty image", err)
	case errors.Is(err, datauri.ErrMalformed):
		return shared.WrapError("student", op, shared.ErrInvalidInput, "photo is not a valid base64 data URI", err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
