package repo

import (
	"context"

	"github.com/devricklin/smart-listener/internal/biz/domain"
)

// ReplyRepo hands messages to the primary reply path
type ReplyRepo interface {
	// Forward passes the original message on; the primary path proceeds independently
	Forward(ctx context.Context, msg *domain.IncomingMessage, verdict domain.Verdict) error
}
