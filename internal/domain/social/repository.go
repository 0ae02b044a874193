package social

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// LinkStore - порт коллекции friend-links. Как и student.Store, коллекция
// читается и перезаписывается целиком.
type LinkStore interface {
	// LoadLinks возвращает ссылки в порядке добавления; пустой срез, если
	// коллекции нет.
	LoadLinks(ctx context.Context) ([]FriendLink, error)

	// SaveLinks перезаписывает коллекцию целиком.
	SaveLinks(ctx context.Context, links []FriendLink) error

	// ClearLinks удаляет коллекцию.
	ClearLinks(ctx context.Context) error
}
