// Package eventhandler содержит обработчики доменных событий.
// Они реагируют на изменения каталога уже после того, как команда
// завершилась, и не могут её отменить.
package eventhandler

import (
	"context"
	"time"

	"github.com/ubaya-hub/student-hub/internal/domain/shared"
	"github.com/ubaya-hub/student-hub/internal/domain/social"
	"github.com/ubaya-hub/student-hub/pkg/logger"
)

// DefaultTimeout ограничивает чтение хранилища одним обработчиком.
const DefaultTimeout = 5 * time.Second

// ═══════════════════════════════════════════════════════════════════════════
// ON STUDENT DELETED HANDLER
// Удаление студента не трогает список друзей: ссылка остаётся и просто
// перестаёт попадать в выдачу. Обработчик сообщает об этом в лог, чтобы
// "исчезнувший" друг был объясним.
// ═══════════════════════════════════════════════════════════════════════════

// OnStudentDeletedHandler отмечает ссылки, ставшие сиротами.
type OnStudentDeletedHandler struct {
	links   social.LinkStore
	timeout time.Duration
	log     *logger.Logger
}

// NewOnStudentDeletedHandler создаёт обработчик.
func NewOnStudentDeletedHandler(links social.LinkStore, log *logger.Logger) *OnStudentDeletedHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &OnStudentDeletedHandler{
		links:   links,
		timeout: DefaultTimeout,
		log:     log.With(logger.Component("on_student_deleted")),
	}
}

// Handle реализует shared.EventHandler. События из другого процесса
// приходят без конкретного типа, поэтому NRP берётся из AggregateID.
func (h *OnStudentDeletedHandler) Handle(event shared.Event) error {
	if event.EventType() != shared.EventStudentDeleted {
		return nil
	}
	nrp := event.AggregateID()

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	links, err := h.links.LoadLinks(ctx)
	if err != nil {
		return err
	}
	if !social.Contains(links, nrp) {
		return nil
	}

	h.log.Warn("deleted student was a friend; the link is kept but hidden",
		logger.NRP(nrp),
		logger.Int("friend_links", len(links)),
	)
	return nil
}
