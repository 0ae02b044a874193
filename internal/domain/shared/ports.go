package shared

import "context"

// ═══════════════════════════════════════════════════════════════════════════
// Collaborator ports
// ═══════════════════════════════════════════════════════════════════════════

// TextGenerator completes a prompt with prose. Implementations live in
// infrastructure/external.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// MailComposer turns a draft into a link that opens the user's mail client.
type MailComposer interface {
	ComposeURL(to, subject, body string) (string, error)
}

// ThemeStore persists the colour preference.
type ThemeStore interface {
	Theme(ctx context.Context) (Theme, error)
	SetTheme(ctx context.Context, theme Theme) error
}

// DataResetter wipes every persisted collection and preference.
type DataResetter interface {
	ClearAll(ctx context.Context) error
}
