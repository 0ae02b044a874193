package query

import (
	"context"
	"fmt"

	"github.com/ubaya-hub/student-hub/internal/domain/shared"
	"github.com/ubaya-hub/student-hub/internal/domain/social"
	"github.com/ubaya-hub/student-hub/internal/domain/student"
)

// Тема и текст письма другу.
const (
	FriendMailSubject = "Hello Friend!"
	FriendMailBody    = "Hi, how are you?"
)

// ComposeFriendEmailQuery - друг, которому пишем.
type ComposeFriendEmailQuery struct {
	NRP string
}

// FriendEmailResult - ссылка для почтового клиента.
type FriendEmailResult struct {
	NRP     string `json:"nrp"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	URL     string `json:"url"`
}

// ComposeFriendEmailHandler строит mailto-ссылку. Письмо получают только
// друзья, чья запись есть в каталоге.
type ComposeFriendEmailHandler struct {
	students student.Store
	links    social.LinkStore
	mail     shared.MailComposer
}

// NewComposeFriendEmailHandler создаёт обработчик.
func NewComposeFriendEmailHandler(students student.Store, links social.LinkStore, mail shared.MailComposer) *ComposeFriendEmailHandler {
	return &ComposeFriendEmailHandler{students: students, links: links, mail: mail}
}

// Handle выполняет запрос.
func (h *ComposeFriendEmailHandler) Handle(ctx context.Context, q ComposeFriendEmailQuery) (*FriendEmailResult, error) {
	nrp, err := shared.NewNRP(q.NRP)
	if err != nil {
		return nil, err
	}
	q.NRP = nrp.String()

	links, err := h.links.LoadLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("compose_email: %w", err)
	}
	if !social.Contains(links, q.NRP) {
		return nil, shared.ErrFriendNotFound
	}

	students, err := h.students.LoadStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("compose_email: %w", err)
	}
	idx := student.IndexOf(students, q.NRP)
	if idx < 0 {
		return nil, shared.ErrFriendNotFound
	}

	friend := students[idx]
	url, err := h.mail.ComposeURL(friend.Email, FriendMailSubject, FriendMailBody)
	if err != nil {
		return nil, shared.WrapError("social", "ComposeEmail", shared.ErrInvalidInput, "cannot build mail link", err)
	}
	return &FriendEmailResult{
		NRP:     friend.NRP,
		To:      friend.Email,
		Subject: FriendMailSubject,
		Body:    FriendMailBody,
		URL:     url,
	}, nil
}
