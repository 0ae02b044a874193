// Package student содержит доменную модель каталога студентов Ubaya Student Hub.
//
// Пакет определяет:
//
//   - Сущность Student и закрытое множество программ Program
//   - Фиксированный начальный набор записей (SeedStudents)
//   - Правило поиска каталога (Student.MatchesQuery, Filter)
//   - Порт хранилища Store, который реализуется в infrastructure/persistence
//
// # Идентичность
//
// NRP - номер студента и первичный ключ. В коллекции нет двух записей
// с одинаковым NRP, и NRP записи не меняется после создания.
//
// # Поиск
//
// Запись попадает в результат, если имя содержит запрос без учёта регистра,
// NRP содержит запрос как есть или код программы содержит запрос без учёта
// регистра. Пустой запрос возвращает всю коллекцию в порядке вставки:
//
//	matches := student.Filter(all, "dsai")
//
// Пакет не зависит ни от чего, кроме shared и стандартной библиотеки.
package student
