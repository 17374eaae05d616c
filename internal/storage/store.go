package storage

import (
	"github.com/dgraph-io/badger/v4"
	"github.com/dkeye/devcircle/internal/domain"
)

// Store groups every collection the API serves.
type Store struct {
	Users       *Collection[domain.User, *domain.User]
	Profiles    *Collection[domain.Profile, *domain.Profile]
	Projects    *Collection[domain.Project, *domain.Project]
	IdeProjects *Collection[domain.IdeProject, *domain.IdeProject]
	Progress    *Collection[domain.LearningProgress, *domain.LearningProgress]
	APIs        *Collection[domain.API, *domain.API]
	Tools       *Collection[domain.Tool, *domain.Tool]
	Topics      *Collection[domain.Topic, *domain.Topic]
	Roadmaps    *Collection[domain.Roadmap, *domain.Roadmap]
	Feedback    *Collection[domain.Feedback, *domain.Feedback]
	Entries     *Collection[domain.Entry, *domain.Entry]
}

func NewStore(db *badger.DB) *Store {
	return &Store{
		Users: NewCollection[domain.User](db, "users").
			Unique("username", func(u *domain.User) string { return u.Username }).
			Unique("email", func(u *domain.User) string { return u.Email }),
		Profiles: NewCollection[domain.Profile](db, "profiles").
			Unique("user", func(p *domain.Profile) string { return p.User }),
		Projects:    NewCollection[domain.Project](db, "projects"),
		IdeProjects: NewCollection[domain.IdeProject](db, "ideprojects"),
		Progress: NewCollection[domain.LearningProgress](db, "progress").
			Unique("user", func(p *domain.LearningProgress) string { return p.User }),
		APIs:     NewCollection[domain.API](db, "apis"),
		Tools:    NewCollection[domain.Tool](db, "tools"),
		Topics:   NewCollection[domain.Topic](db, "topics"),
		Roadmaps: NewCollection[domain.Roadmap](db, "roadmaps"),
		Feedback: NewCollection[domain.Feedback](db, "feedback"),
		Entries:  NewCollection[domain.Entry](db, "entries"),
	}
}
