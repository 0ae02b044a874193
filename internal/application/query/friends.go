package query

import (
	"context"
	"fmt"
	"time"

	"github.com/ubaya-hub/student-hub/internal/domain/shared"
	"github.com/ubaya-hub/student-hub/internal/domain/social"
	"github.com/ubaya-hub/student-hub/internal/domain/student"
	"github.com/ubaya-hub/student-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// FRIEND QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// ListFriendsResult - друзья в порядке каталога.
type ListFriendsResult struct {
	Friends []student.Student `json:"friends"`
	Total   int               `json:"total"`

	// Orphans - ссылки на удалённых студентов. Они не ошибка, просто не
	// попадают в Friends.
	Orphans int `json:"orphans"`
}

// ListFriendsHandler соединяет friend-links с каталогом.
type ListFriendsHandler struct {
	students student.Store
	links    social.LinkStore
	latency  time.Duration
}

// NewListFriendsHandler создаёт обработчик.
func NewListFriendsHandler(students student.Store, links social.LinkStore, latency time.Duration) *ListFriendsHandler {
	return &ListFriendsHandler{students: students, links: links, latency: latency}
}

// Handle выполняет запрос.
func (h *ListFriendsHandler) Handle(ctx context.Context) (*ListFriendsResult, error) {
	if err := timeutil.Sleep(ctx, h.latency); err != nil {
		return nil, err
	}
	links, err := h.links.LoadLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list_friends: %w", err)
	}
	students, err := h.students.LoadStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list_friends: %w", err)
	}
	friends := social.JoinStudents(links, students)
	return &ListFriendsResult{
		Friends: friends,
		Total:   len(friends),
		Orphans: len(social.Orphans(links, students)),
	}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// IsFriend
// ─────────────────────────────────────────────────────────────────────────────

// IsFriendQuery - проверка одной ссылки.
type IsFriendQuery struct {
	NRP string
}

// IsFriendResult - состояние студента для текущего пользователя.
type IsFriendResult struct {
	NRP      string       `json:"nrp"`
	IsFriend bool         `json:"isFriend"`
	State    social.State `json:"state"`
}

// IsFriendHandler проверяет наличие ссылки.
type IsFriendHandler struct {
	links   social.LinkStore
	latency time.Duration
}

// NewIsFriendHandler создаёт обработчик.
func NewIsFriendHandler(links social.LinkStore, latency time.Duration) *IsFriendHandler {
	return &IsFriendHandler{links: links, latency: latency}
}

// Handle выполняет запрос.
func (h *IsFriendHandler) Handle(ctx context.Context, q IsFriendQuery) (*IsFriendResult, error) {
	nrp, err := shared.NewNRP(q.NRP)
	if err != nil {
		return nil, err
	}
	q.NRP = nrp.String()
	if err := timeutil.Sleep(ctx, h.latency); err != nil {
		return nil, err
	}
	links, err := h.links.LoadLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("is_friend: %w", err)
	}
	state := social.StateOf(links, q.NRP)
	return &IsFriendResult{NRP: q.NRP, IsFriend: state == social.StateFriend, State: state}, nil
}
