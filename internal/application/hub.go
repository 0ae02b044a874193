// Package application wires the command and query handlers of Student Hub
// over one persistence store.
package application

import (
	"context"
	"time"

	"github.com/ubaya-hub/student-hub/internal/application/command"
	"github.com/ubaya-hub/student-hub/internal/application/query"
	"github.com/ubaya-hub/student-hub/internal/domain/shared"
	"github.com/ubaya-hub/student-hub/internal/domain/social"
	"github.com/ubaya-hub/student-hub/internal/domain/student"
	"github.com/ubaya-hub/student-hub/pkg/logger"
	"github.com/ubaya-hub/student-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PORTS
// ══════════════════════════════════════════════════════════════════════════════

// Store is everything the hub persists. persistence.CollectionStore
// implements it.
type Store interface {
	student.Store
	social.LinkStore
	shared.ThemeStore
	shared.DataResetter
}

// Features switches the optional collaborator features.
type Features struct {
	CareerInsight bool
	TextRefine    bool
	PhotoUpload   bool
}

// Options configures a Hub. Zero values are usable: no latency, no events,
// no generator and the system clock.
type Options struct {
	// Latency is slept before each directory and friend operation.
	Latency time.Duration

	Publisher shared.EventPublisher
	Generator shared.TextGenerator
	Mail      shared.MailComposer
	Features  Features

	// PhotoMaxBytes caps uploaded photos before encoding.
	PhotoMaxBytes int

	Clock timeutil.Clock
	Log   *logger.Logger
}

// ══════════════════════════════════════════════════════════════════════════════
// HUB
// ══════════════════════════════════════════════════════════════════════════════

// Commands groups the write handlers. They share one write lock.
type Commands struct {
	CreateStudent *command.CreateStudentHandler
	UpdateStudent *command.UpdateStudentHandler
	DeleteStudent *command.DeleteStudentHandler
	UploadPhoto   *command.UploadPhotoHandler
	AddFriend     *command.AddFriendHandler
	ResetFriends  *command.ResetFriendsHandler
	SetTheme      *command.SetThemeHandler
	ResetData     *command.ResetDataHandler
	RefineText    *command.RefineTextHandler
}

// Queries groups the read handlers.
type Queries struct {
	ListStudents       *query.ListStudentsHandler
	GetStudent         *query.GetStudentHandler
	SearchStudents     *query.SearchStudentsHandler
	ListFriends        *query.ListFriendsHandler
	IsFriend           *query.IsFriendHandler
	GetTheme           *query.GetThemeHandler
	GetCareerInsight   *query.GetCareerInsightHandler
	ComposeFriendEmail *query.ComposeFriendEmailHandler
}

// Hub is the application facade used by the HTTP API and the CLI.
type Hub struct {
	Commands Commands
	Queries  Queries
	Features Features

	store Store
	log   *logger.Logger
}

// New builds every handler over store.
func New(store Store, opts Options) *Hub {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.Component("hub"))

	mail := opts.Mail
	if mail == nil {
		mail = unsupportedMail{}
	}

	env := command.NewEnv(opts.Latency, opts.Publisher, opts.Clock, log)
	latency := opts.Latency

	return &Hub{
		Commands: Commands{
			CreateStudent: command.NewCreateStudentHandler(store, env),
			UpdateStudent: command.NewUpdateStudentHandler(store, env).WithPhotoLimit(opts.PhotoMaxBytes),
			DeleteStudent: command.NewDeleteStudentHandler(store, env),
			UploadPhoto:   command.NewUploadPhotoHandler(store, env, opts.PhotoMaxBytes, opts.Features.PhotoUpload),
			AddFriend:     command.NewAddFriendHandler(store, env),
			ResetFriends:  command.NewResetFriendsHandler(store, env),
			SetTheme:      command.NewSetThemeHandler(store, env),
			ResetData:     command.NewResetDataHandler(store, env),
			RefineText:    command.NewRefineTextHandler(opts.Generator, opts.Features.TextRefine, log),
		},
		Queries: Queries{
			ListStudents:       query.NewListStudentsHandler(store, latency),
			GetStudent:         query.NewGetStudentHandler(store, latency),
			SearchStudents:     query.NewSearchStudentsHandler(store, latency),
			ListFriends:        query.NewListFriendsHandler(store, store, latency),
			IsFriend:           query.NewIsFriendHandler(store, latency),
			GetTheme:           query.NewGetThemeHandler(store),
			GetCareerInsight:   query.NewGetCareerInsightHandler(store, opts.Generator, opts.Features.CareerInsight, latency, log),
			ComposeFriendEmail: query.NewComposeFriendEmailHandler(store, store, mail),
		},
		Features: opts.Features,
		store:    store,
		log:      log,
	}
}

// Warmup loads both collections once so a fresh store is seeded before the
// first request and corrupt data is reported at startup.
func (h *Hub) Warmup(ctx context.Context) error {
	students, err := h.store.LoadStudents(ctx)
	if err != nil {
		return err
	}
	links, err := h.store.LoadLinks(ctx)
	if err != nil {
		return err
	}
	h.log.Info("hub ready",
		logger.Int("students", len(students)),
		logger.Int("friend_links", len(links)),
	)
	return nil
}

type unsupportedMail struct{}

func (unsupportedMail) ComposeURL(string, string, string) (string, error) {
	return "", shared.NewDomainError("social", "ComposeEmail", shared.ErrFeatureDisabled, "no mail composer configured")
}
