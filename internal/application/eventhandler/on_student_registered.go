package eventhandler

import (
	"context"
	"time"

	"github.com/ubaya-hub/student-hub/internal/domain/shared"
	"github.com/ubaya-hub/student-hub/internal/domain/social"
	"github.com/ubaya-hub/student-hub/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON STUDENT REGISTERED HANDLER
// Ссылка на удалённого студента переживает удаление. Если NRP снова
// регистрируется, друг возвращается в список без нового AddFriend.
// ═══════════════════════════════════════════════════════════════════════════

// OnStudentRegisteredHandler сообщает о восстановленных друзьях.
type OnStudentRegisteredHandler struct {
	links   social.LinkStore
	timeout time.Duration
	log     *logger.Logger
}

// NewOnStudentRegisteredHandler создаёт обработчик.
func NewOnStudentRegisteredHandler(links social.LinkStore, log *logger.Logger) *OnStudentRegisteredHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &OnStudentRegisteredHandler{
		links:   links,
		timeout: DefaultTimeout,
		log:     log.With(logger.Component("on_student_registered")),
	}
}

// Handle реализует shared.EventHandler.
func (h *OnStudentRegisteredHandler) Handle(event shared.Event) error {
	if event.EventType() != shared.EventStudentRegistered {
		return nil
	}
	nrp := event.AggregateID()

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	links, err := h.links.LoadLinks(ctx)
	if err != nil {
		return err
	}
	if social.Contains(links, nrp) {
		h.log.Info("registered student is an existing friend; link restored", logger.NRP(nrp))
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// REGISTRATION
// ═══════════════════════════════════════════════════════════════════════════

// Subscriber is the part of the event bus Register needs.
type Subscriber interface {
	Subscribe(eventType shared.EventType, handler shared.EventHandler) error
}

// Register subscribes every handler in this package. wrap decorates each
// handler, typically with recovery and timing middleware; nil leaves them
// as they are.
func Register(bus Subscriber, links social.LinkStore, log *logger.Logger, wrap func(shared.EventHandler) shared.EventHandler) error {
	if wrap == nil {
		wrap = func(h shared.EventHandler) shared.EventHandler { return h }
	}

	handlers := map[shared.EventType]shared.EventHandler{
		shared.EventStudentDeleted:    NewOnStudentDeletedHandler(links, log).Handle,
		shared.EventStudentRegistered: NewOnStudentRegisteredHandler(links, log).Handle,
	}
	for eventType, handler := range handlers {
		if err := bus.Subscribe(eventType, wrap(handler)); err != nil {
			return err
		}
	}
	return nil
}
