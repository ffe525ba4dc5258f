package repo

import (
	"context"

	"github.com/devricklin/smart-listener/internal/biz/domain"
)

// JudgmentFilter narrows a judgment listing
type JudgmentFilter struct {
	GroupID string // Empty means all groups
	Limit   int
}

// JudgmentRepo is the judgment audit log
type JudgmentRepo interface {
	Save(ctx context.Context, j *domain.Judgment) error
	// List returns judgments newest first
	List(ctx context.Context, filter JudgmentFilter) ([]*domain.Judgment, error)
	Close() error
}
