// Package mail builds mailto: links that hand a pre-filled draft to the
// user's mail client. Nothing is sent from the hub itself.
package mail

import (
	"errors"
	"net/mail"
	"net/url"
	"strings"

	"github.com/ubaya-hub/student-hub/internal/domain/shared"
)

// ErrInvalidRecipient is returned when the address cannot be parsed.
var ErrInvalidRecipient = errors.New("mail: invalid recipient")

// Composer implements shared.MailComposer.
type Composer struct{}

var _ shared.MailComposer = Composer{}

// ComposeURL returns mailto:<to>?subject=...&body=... with spaces encoded
// as %20, which mail clients handle more consistently than '+'.
func (Composer) ComposeURL(to, subject, body string) (string, error) {
	to = strings.TrimSpace(to)
	addr, err := mail.ParseAddress(to)
	if err != nil {
		return "", errors.Join(ErrInvalidRecipient, err)
	}

	var params []string
	if subject != "" {
		params = append(params, "subject="+escape(subject))
	}
	if body != "" {
		params = append(params, "body="+escape(body))
	}

	link := "mailto:" + addr.Address
	if len(params) > 0 {
		link += "?" + strings.Join(params, "&")
	}
	return link, nil
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
