package data

import (
	"github.com/peekabot/peekabot/internal/biz/repo"
)

// Repositories contains all repositories
type Repositories struct {
	Message repo.MessageRepo
	History repo.HistoryRepo // nil when history is disabled
}

// NewRepositories creates the process-wide repositories. An empty historyDBPath
// disables history. Message is bound per platform session with WithMessage.
func NewRepositories(historyDBPath string) (*Repositories, error) {
	repos := &Repositories{}
	if historyDBPath == "" {
		return repos, nil
	}

	historyRepo, err := NewHistoryRepo(historyDBPath)
	if err != nil {
		return nil, err
	}
	repos.History = historyRepo
	return repos, nil
}

// WithMessage returns a copy bound to a platform session's message repository
func (r *Repositories) WithMessage(message repo.MessageRepo) *Repositories {
	return &Repositories{
		Message: message,
		History: r.History,
	}
}

// Close releases repository resources
func (r *Repositories) Close() error {
	if r.History != nil {
		return r.History.Close()
	}
	return nil
}
