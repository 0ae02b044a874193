package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/ubaya-hub/student-hub/internal/domain/shared"
	"github.com/ubaya-hub/student-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REFINE TEXT COMMAND
// Asks the text generator to polish one profile field. A generator failure
// is not an error: the original text comes back with a message.
// ══════════════════════════════════════════════════════════════════════════════

// RefineField names a free-text profile field.
type RefineField string

const (
	RefineAboutMe     RefineField = "aboutMe"
	RefineExperiences RefineField = "experiences"
	RefineCourseList  RefineField = "courseList"
)

// MinRefineLength is the shortest text worth sending to the generator.
const MinRefineLength = 5

// RefineFailedMessage is shown when the generator fails.
const RefineFailedMessage = "Failed to refine text. Please try again."

// Label returns how the field is described in the prompt.
func (f RefineField) Label() string {
	switch f {
	case RefineAboutMe:
		return "profile bio"
	case RefineExperiences:
		return "professional experiences"
	case RefineCourseList:
		return "course list"
	default:
		return ""
	}
}

// ParseRefineField accepts the field names used in the JSON model, plus
// myExperiences and myCourse as older aliases.
func ParseRefineField(value string) (RefineField, error) {
	switch strings.TrimSpace(value) {
	case "aboutMe":
		return RefineAboutMe, nil
	case "experiences", "myExperiences":
		return RefineExperiences, nil
	case "courseList", "myCourse":
		return RefineCourseList, nil
	default:
		return "", shared.ErrUnknownRefineField
	}
}

// RefinePrompt builds the generator prompt for text.
func RefinePrompt(field RefineField, text string) string {
	return fmt.Sprintf("Refine the following %s to make it sound more professional, academic, and engaging "+
		"for a university student hub. Keep the core information but improve the flow and vocabulary. "+
		"Limit to 3-4 sentences.\nText: %s", field.Label(), text)
}

// RefineTextCommand carries the text to refine.
type RefineTextCommand struct {
	Field RefineField
	Text  string
}

// Validate checks the field and the minimum length.
func (c RefineTextCommand) Validate() error {
	if c.Field.Label() == "" {
		return shared.ErrUnknownRefineField
	}
	if len([]rune(c.Text)) < MinRefineLength {
		return shared.ErrTextTooShort
	}
	return nil
}

// RefineTextResult holds the refined text, or the original on failure.
type RefineTextResult struct {
	Field   RefineField `json:"field"`
	Text    string      `json:"text"`
	Refined bool        `json:"refined"`
	Message string      `json:"message,omitempty"`
}

// RefineTextHandler handles RefineTextCommand.
type RefineTextHandler struct {
	generator shared.TextGenerator
	enabled   bool
	log       *logger.Logger
}

// NewRefineTextHandler creates a new RefineTextHandler. With enabled false
// every call fails with a feature-disabled error. A nil generator is treated
// like a failed call: the original text comes back with RefineFailedMessage.
func NewRefineTextHandler(generator shared.TextGenerator, enabled bool, log *logger.Logger) *RefineTextHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &RefineTextHandler{generator: generator, enabled: enabled, log: log}
}

// Handle executes the command.
func (h *RefineTextHandler) Handle(ctx context.Context, cmd RefineTextCommand) (*RefineTextResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if !h.enabled {
		return nil, shared.NewDomainError("assistant", "Refine", shared.ErrFeatureDisabled, "text refine is disabled")
	}

	var reply string
	err := error(shared.ErrGeneratorUnavailable)
	if h.generator != nil {
		reply, err = h.generator.GenerateText(ctx, RefinePrompt(cmd.Field, cmd.Text))
	}
	if err != nil {
		h.log.Warn("text refine failed", logger.String("field", string(cmd.Field)), logger.Err(err))
		return &RefineTextResult{Field: cmd.Field, Text: cmd.Text, Message: RefineFailedMessage}, nil
	}

	refined := strings.TrimSpace(reply)
	if refined == "" {
		return &RefineTextResult{Field: cmd.Field, Text: cmd.Text}, nil
	}
	return &RefineTextResult{Field: cmd.Field, Text: refined, Refined: true}, nil
}
