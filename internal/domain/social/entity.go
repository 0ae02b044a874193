// Package social содержит доменную модель списка друзей.
// Список принадлежит одному пользователю устройства: FriendLink означает,
// что пользователь добавил студента с данным NRP в друзья.
package social

import (
	"github.com/ubaya-hub/student-hub/internal/domain/shared"
	"github.com/ubaya-hub/student-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: FRIEND LINK
// ══════════════════════════════════════════════════════════════════════════════

// FriendLink - запись "студент в друзьях". Ссылки не меняются после создания
// и удаляются только общим сбросом.
type FriendLink struct {
	// LinkID - время создания в миллисекундах. Строго растёт внутри списка.
	LinkID int64 `json:"linkId" bson:"linkId"`

	// NRP - ссылка на Student.NRP. Целостность не проверяется: после удаления
	// студента ссылка остаётся и отбрасывается при чтении.
	NRP string `json:"nrp" bson:"nrp"`
}

// ══════════════════════════════════════════════════════════════════════════════
// STATE
// ══════════════════════════════════════════════════════════════════════════════

// State - состояние студента с точки зрения списка друзей.
type State string

const (
	// StateNotFriend - ссылки нет.
	StateNotFriend State = "not-friend"
	// StateFriend - ссылка есть. Обратного перехода нет, кроме общего сброса.
	StateFriend State = "friend"
)

// StateOf возвращает состояние NRP в списке.
func StateOf(links []FriendLink, nrp string) State {
	if Contains(links, nrp) {
		return StateFriend
	}
	return StateNotFriend
}

// ══════════════════════════════════════════════════════════════════════════════
// COLLECTION HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// Contains проверяет, есть ли ссылка на NRP.
func Contains(links []FriendLink, nrp string) bool {
	for _, l := range links {
		if l.NRP == nrp {
			return true
		}
	}
	return false
}

// MaxLinkID возвращает наибольший LinkID списка (0 для пустого).
func MaxLinkID(links []FriendLink) int64 {
	var highest int64
	for _, l := range links {
		if l.LinkID > highest {
			highest = l.LinkID
		}
	}
	return highest
}

// Append добавляет ссылку, если её ещё нет. Возвращает новый список и флаг
// добавления. Повторный вызов с тем же NRP ничего не меняет.
func Append(links []FriendLink, nrp string, linkID int64) ([]FriendLink, bool, error) {
	if nrp == "" {
		return links, false, shared.ErrInvalidNRP
	}
	if Contains(links, nrp) {
		return links, false, nil
	}
	out := make([]FriendLink, 0, len(links)+1)
	out = append(out, links...)
	out = append(out, FriendLink{LinkID: linkID, NRP: nrp})
	return out, true, nil
}

// JoinStudents - inner join ссылок со студентами по NRP. Порядок - порядок
// вставки студентов. Ссылки на удалённых студентов молча отбрасываются.
func JoinStudents(links []FriendLink, students []student.Student) []student.Student {
	if len(links) == 0 {
		return []student.Student{}
	}
	set := make(map[string]struct{}, len(links))
	for _, l := range links {
		set[l.NRP] = struct{}{}
	}
	out := make([]student.Student, 0, len(links))
	for _, s := range students {
		if _, ok := set[s.NRP]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Orphans возвращает ссылки, для которых студента больше нет.
func Orphans(links []FriendLink, students []student.Student) []FriendLink {
	present := make(map[string]struct{}, len(students))
	for _, s := range students {
		present[s.NRP] = struct{}{}
	}
	var out []FriendLink
	for _, l := range links {
		if _, ok := present[l.NRP]; !ok {
			out = append(out, l)
		}
	}
	return out
}
