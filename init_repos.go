package main

import (
	"database/sql"

	"github.com/akinalp/leasehub/repository"
)

// Repositories holds every repository instance.
type Repositories struct {
	User         repository.UserRepository
	Conversation repository.ConversationRepository
	Message      repository.MessageRepository
	Property     repository.PropertyRepository
	Deal         repository.DealRepository
}

// initRepositories builds the SQLite repositories. *sql.DB is a pooled,
// goroutine-safe handle shared by all of them.
func initRepositories(conn *sql.DB) *Repositories {
	return &Repositories{
		User:         repository.NewSQLiteUserRepo(conn),
		Conversation: repository.NewSQLiteConversationRepo(conn),
		Message:      repository.NewSQLiteMessageRepo(conn),
		Property:     repository.NewSQLitePropertyRepo(conn),
		Deal:         repository.NewSQLiteDealRepo(conn),
	}
}
