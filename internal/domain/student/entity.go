// Package student содержит доменную модель студента Ubaya Student Hub.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package student

import (
	"fmt"
	"strings"

	"github.com/ubaya-hub/student-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Program - код учебной программы (закрытое множество из пяти значений).
type Program string

const (
	ProgramDSAI Program = "DSAI"
	ProgramNCS  Program = "NCS"
	ProgramIMES Program = "IMES"
	ProgramDMT  Program = "DMT"
	ProgramGD   Program = "GD"
)

// Programs возвращает все программы в каноническом порядке.
func Programs() []Program {
	return []Program{ProgramDSAI, ProgramNCS, ProgramIMES, ProgramDMT, ProgramGD}
}

// IsValid проверяет, что программа входит в закрытое множество.
func (p Program) IsValid() bool {
	switch p {
	case ProgramDSAI, ProgramNCS, ProgramIMES, ProgramDMT, ProgramGD:
		return true
	default:
		return false
	}
}

// String возвращает код программы.
func (p Program) String() string {
	return string(p)
}

// ParseProgram принимает код в любом регистре.
func ParseProgram(value string) (Program, error) {
	p := Program(strings.ToUpper(strings.TrimSpace(value)))
	if !p.IsValid() {
		return "", shared.ErrInvalidProgram
	}
	return p, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: STUDENT
// ══════════════════════════════════════════════════════════════════════════════

// Student - запись каталога. NRP - первичный ключ, после создания не меняется.
type Student struct {
	NRP         string  `json:"nrp" bson:"nrp" yaml:"nrp"`
	Name        string  `json:"name" bson:"name" yaml:"name"`
	Email       string  `json:"email" bson:"email" yaml:"email"`
	Program     Program `json:"program" bson:"program" yaml:"program"`
	AboutMe     string  `json:"aboutMe" bson:"aboutMe" yaml:"aboutMe"`
	CourseList  string  `json:"courseList" bson:"courseList" yaml:"courseList"`
	Experiences string  `json:"experiences" bson:"experiences" yaml:"experiences"`

	// PhotoURL - обычный URL или data: URI с самим изображением.
	PhotoURL string `json:"photoUrl" bson:"photoUrl" yaml:"photoUrl"`
}

// Normalize обрезает пробелы вокруг NRP, чтобы " 999 " и "999" были одним ключом.
func (s *Student) Normalize() {
	s.NRP = shared.CleanNRP(s.NRP)
}

// Validate выполняет проверки присутствия: NRP, имя и email обязательны,
// программа должна быть из списка. Формат email не проверяется.
func (s Student) Validate() error {
	if strings.TrimSpace(s.NRP) == "" {
		return shared.ErrInvalidNRP
	}
	if strings.TrimSpace(s.Name) == "" {
		return shared.NewDomainError("student", "Validate", shared.ErrEmptyValue, "name is required")
	}
	if strings.TrimSpace(s.Email) == "" {
		return shared.NewDomainError("student", "Validate", shared.ErrEmptyValue, "email is required")
	}
	if !s.Program.IsValid() {
		return shared.ErrInvalidProgram
	}
	return nil
}

// DefaultPhotoURL возвращает плейсхолдер, который получает новая запись без фото.
func DefaultPhotoURL(seed string) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s/200/200", seed)
}

// WithDefaults заполняет пустое фото плейсхолдером.
func (s Student) WithDefaults(seed string) Student {
	if strings.TrimSpace(s.PhotoURL) == "" {
		s.PhotoURL = DefaultPhotoURL(seed)
	}
	return s
}

// MatchesQuery - правило поиска каталога. Запись подходит, если выполнено
// хотя бы одно: имя содержит запрос без учёта регистра, NRP содержит запрос
// как есть, код программы содержит запрос без учёта регистра.
// Пустой запрос подходит любой записи.
func (s Student) MatchesQuery(query string) bool {
	if query == "" {
		return true
	}
	lower := strings.ToLower(query)
	return strings.Contains(strings.ToLower(s.Name), lower) ||
		strings.Contains(s.NRP, query) ||
		strings.Contains(strings.ToLower(string(s.Program)), lower)
}

// ══════════════════════════════════════════════════════════════════════════════
// COLLECTION HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// IndexOf возвращает позицию записи с данным NRP или -1.
func IndexOf(students []Student, nrp string) int {
	for i := range students {
		if students[i].NRP == nrp {
			return i
		}
	}
	return -1
}

// Filter возвращает записи, подходящие под запрос, сохраняя порядок вставки.
func Filter(students []Student, query string) []Student {
	out := make([]Student, 0, len(students))
	for _, s := range students {
		if s.MatchesQuery(query) {
			out = append(out, s)
		}
	}
	return out
}
