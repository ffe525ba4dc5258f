package data

import (
	"github.com/devricklin/smart-listener/internal/biz/repo"
)

// Options configures the repository layer
type Options struct {
	HistoryCapacity int
	MaxGroups       int
	Providers       map[string]ChatClient
	AuditDBPath     string   // Empty disables the judgment audit log
	Bus             *NATSBus // Nil forwards to the log only
}

// Repositories contains all repositories
type Repositories struct {
	History  repo.HistoryRepo
	Model    repo.ModelRepo
	Reply    repo.ReplyRepo
	Judgment repo.JudgmentRepo // Nil when the audit log is disabled
}

// NewRepositories creates all repositories
func NewRepositories(opts Options) (*Repositories, error) {
	repos := &Repositories{
		History: NewHistoryRepo(opts.HistoryCapacity, opts.MaxGroups),
		Model:   NewModelRepo(opts.Providers),
		Reply:   NewLogReplyRepo(),
	}

	if opts.Bus != nil {
		repos.Reply = opts.Bus
	}

	if opts.AuditDBPath != "" {
		judgmentRepo, err := NewJudgmentRepo(opts.AuditDBPath)
		if err != nil {
			return nil, err
		}
		repos.Judgment = judgmentRepo
	}

	return repos, nil
}

// Close releases repository resources
func (r *Repositories) Close() error {
	if r.Judgment != nil {
		return r.Judgment.Close()
	}
	return nil
}
