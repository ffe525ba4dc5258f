package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/devricklin/smart-listener/internal/biz/domain"
	"github.com/devricklin/smart-listener/internal/biz/repo"
	"github.com/devricklin/smart-listener/internal/biz/usecase"
)

// GateService decides which group messages reach the primary reply path
type GateService struct {
	historyRepo  repo.HistoryRepo
	classifierUC *usecase.ClassifierUsecase
	replyRepo    repo.ReplyRepo
	judgmentRepo repo.JudgmentRepo // Optional audit log

	config atomic.Pointer[domain.GateConfig]

	// Per-group lanes serialize judgment within a group
	lanes   map[string]*lane
	lanesMu sync.Mutex

	now func() time.Time
}

// lane is a one-slot semaphore shared by every in-flight message of a group
type lane struct {
	slot chan struct{}
	refs int
}

// NewGateService creates a new gate service. judgmentRepo may be nil.
func NewGateService(
	cfg domain.GateConfig,
	historyRepo repo.HistoryRepo,
	classifierUC *usecase.ClassifierUsecase,
	replyRepo repo.ReplyRepo,
	judgmentRepo repo.JudgmentRepo,
) *GateService {
	s := &GateService{
		historyRepo:  historyRepo,
		classifierUC: classifierUC,
		replyRepo:    replyRepo,
		judgmentRepo: judgmentRepo,
		lanes:        make(map[string]*lane),
		now:          time.Now,
	}
	s.UpdateConfig(cfg)
	return s
}

// UpdateConfig swaps the gate configuration. In-flight messages finish
// with the configuration they started with.
func (s *GateService) UpdateConfig(cfg domain.GateConfig) {
	s.config.Store(&cfg)
	if err := s.Problem(); err != nil {
		log.Warn().Err(err).Msg("relevance gate inactive")
	}
	log.Info().
		Bool("enabled", cfg.Enabled).
		Str("provider", cfg.ProviderID).
		Strs("whitelist", cfg.Whitelist()).
		Msg("gate config applied")
}

// Config returns the current gate configuration
func (s *GateService) Config() domain.GateConfig {
	return *s.config.Load()
}

// Problem reports why an enabled gate cannot judge anything, or nil.
// A selected provider that is unknown or has no API key leaves the gate
// inactive instead of failing every call.
func (s *GateService) Problem() error {
	cfg := s.config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Enabled && !s.classifierUC.Available(cfg.ProviderID) {
		return fmt.Errorf("%w: provider %q is not configured or has no API key", domain.ErrConfigIncomplete, cfg.ProviderID)
	}
	return nil
}

// Groups lists the groups with tracked history
func (s *GateService) Groups() []string {
	return s.historyRepo.Groups()
}

// History returns a copy of the group's history, oldest first
func (s *GateService) History(groupID string) []domain.HistoryEntry {
	return s.historyRepo.Snapshot(groupID)
}

// HandleMessage runs one incoming message through the gate.
// The only error returned is ctx's, when it ends before the message is
// judged; in that case history is left untouched and nothing is forwarded.
func (s *GateService) HandleMessage(ctx context.Context, msg *domain.IncomingMessage) (domain.Decision, error) {
	cfg := s.config.Load()

	// Direct mentions are not this gate's business
	if msg.IsMention {
		decision := domain.Decision{Outcome: domain.OutcomeBypass, Verdict: domain.VerdictRelevant}
		s.forward(ctx, msg, decision.Verdict)
		s.audit(msg, decision, usecase.Classification{})
		return decision, nil
	}

	if reason := s.eligibility(cfg, msg.GroupID); reason != domain.ReasonNone {
		return ineligible(msg, reason), nil
	}
	text := usecase.NormalizeText(msg.Text)
	if text == "" {
		return ineligible(msg, domain.ReasonEmptyText), nil
	}

	release, err := s.acquireLane(ctx, msg.GroupID)
	if err != nil {
		return domain.Decision{}, err
	}

	entry := domain.HistoryEntry{Speaker: usecase.SpeakerLabel(msg.SenderLabel), Text: text}
	prompt := usecase.BuildJudgmentPrompt(cfg.SystemPrompt, cfg.PersonaName, s.historyRepo.Snapshot(msg.GroupID), entry)
	result := s.classifierUC.Classify(ctx, cfg.ProviderID, prompt)

	if err := ctx.Err(); err != nil {
		release()
		log.Debug().Str("group", msg.GroupID).Err(err).Msg("judgment cancelled")
		return domain.Decision{}, err
	}
	s.historyRepo.Append(msg.GroupID, entry)
	release()

	decision := domain.Decision{
		Outcome: domain.OutcomeSuppress,
		Verdict: result.Verdict,
		Raw:     result.Raw,
		Cause:   result.Err,
	}
	if result.Verdict.ShouldForward() {
		decision.Outcome = domain.OutcomeForward
	}

	logEvent := log.Info()
	if result.Err != nil {
		logEvent = log.Warn().Err(result.Err).Str("cause", domain.CauseName(result.Err))
	}
	logEvent.
		Str("group", msg.GroupID).
		Str("verdict", result.Verdict.String()).
		Str("outcome", string(decision.Outcome)).
		Dur("latency", result.Latency).
		Msg("message judged")

	s.audit(msg, decision, result)
	if decision.Outcome == domain.OutcomeForward {
		s.forward(ctx, msg, decision.Verdict)
	}
	return decision, nil
}

// RecordReply appends the bot's own reply to a gated group's history so later
// judgments see both sides of the conversation. Returns false when the group
// is not gated or the text is empty.
func (s *GateService) RecordReply(ctx context.Context, groupID, text string) (bool, error) {
	cfg := s.config.Load()
	if s.eligibility(cfg, groupID) != domain.ReasonNone {
		return false, nil
	}
	text = usecase.NormalizeText(text)
	if text == "" {
		return false, nil
	}

	release, err := s.acquireLane(ctx, groupID)
	if err != nil {
		return false, err
	}
	defer release()

	s.historyRepo.Append(groupID, domain.HistoryEntry{
		Speaker: usecase.PersonaName(cfg.PersonaName),
		Text:    text,
	})
	return true, nil
}

// JudgeResult is the outcome of a dry-run judgment
type JudgeResult struct {
	Prompt  domain.JudgmentPrompt `json:"prompt"`
	Verdict domain.Verdict        `json:"verdict"`
	Forward bool                  `json:"forward"`
	Raw     string                `json:"raw"`
	Cause   string                `json:"cause,omitempty"`
	Latency time.Duration         `json:"latency"`
}

// Judge classifies text against the group's current history without
// appending, forwarding or auditing. The whitelist is not consulted.
func (s *GateService) Judge(ctx context.Context, groupID, sender, text string) (*JudgeResult, error) {
	cfg := s.config.Load()
	if cfg.ProviderID == "" {
		return nil, fmt.Errorf("%w: relevance_checker_provider_id is empty", domain.ErrConfigIncomplete)
	}
	if !s.classifierUC.Available(cfg.ProviderID) {
		return nil, fmt.Errorf("%w: provider %q is not configured or has no API key", domain.ErrConfigIncomplete, cfg.ProviderID)
	}
	entry := domain.HistoryEntry{Speaker: usecase.SpeakerLabel(sender), Text: usecase.NormalizeText(text)}
	if entry.Text == "" {
		return nil, domain.ErrEmptyText
	}

	prompt := usecase.BuildJudgmentPrompt(cfg.SystemPrompt, cfg.PersonaName, s.historyRepo.Snapshot(groupID), entry)
	result := s.classifierUC.Classify(ctx, cfg.ProviderID, prompt)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &JudgeResult{
		Prompt:  prompt,
		Verdict: result.Verdict,
		Forward: result.Verdict.ShouldForward(),
		Raw:     result.Raw,
		Cause:   domain.CauseName(result.Err),
		Latency: result.Latency,
	}, nil
}

// eligibility extends the config check with provider availability
func (s *GateService) eligibility(cfg *domain.GateConfig, groupID string) domain.IneligibleReason {
	if reason := cfg.Eligibility(groupID); reason != domain.ReasonNone {
		return reason
	}
	if !s.classifierUC.Available(cfg.ProviderID) {
		return domain.ReasonNoProvider
	}
	return domain.ReasonNone
}

func ineligible(msg *domain.IncomingMessage, reason domain.IneligibleReason) domain.Decision {
	log.Debug().Str("group", msg.GroupID).Str("reason", string(reason)).Msg("message ineligible")
	return domain.Decision{Outcome: domain.OutcomeIneligible, Reason: reason}
}

func (s *GateService) forward(ctx context.Context, msg *domain.IncomingMessage, verdict domain.Verdict) {
	if err := s.replyRepo.Forward(ctx, msg, verdict); err != nil {
		log.Error().Err(err).Str("group", msg.GroupID).Msg("forward failed")
	}
}

func (s *GateService) audit(msg *domain.IncomingMessage, decision domain.Decision, result usecase.Classification) {
	if s.judgmentRepo == nil {
		return
	}
	j := &domain.Judgment{
		ID:        uuid.New().String(),
		GroupID:   msg.GroupID,
		MessageID: msg.MessageID,
		Sender:    msg.SenderLabel,
		Text:      msg.Text,
		Outcome:   decision.Outcome,
		Verdict:   decision.Verdict,
		Raw:       decision.Raw,
		Cause:     domain.CauseName(decision.Cause),
		Latency:   result.Latency,
		CreatedAt: s.now(),
	}
	// The pass is already decided; the caller's ctx may be gone by now
	if err := s.judgmentRepo.Save(context.Background(), j); err != nil {
		log.Error().Err(err).Str("group", msg.GroupID).Msg("failed to save judgment")
	}
}

// acquireLane waits for the group's lane. The returned release must be
// called exactly once.
func (s *GateService) acquireLane(ctx context.Context, groupID string) (func(), error) {
	s.lanesMu.Lock()
	l, ok := s.lanes[groupID]
	if !ok {
		l = &lane{slot: make(chan struct{}, 1)}
		s.lanes[groupID] = l
	}
	l.refs++
	s.lanesMu.Unlock()

	select {
	case l.slot <- struct{}{}:
	case <-ctx.Done():
		s.dropLane(groupID, l)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-l.slot
			s.dropLane(groupID, l)
		})
	}, nil
}

func (s *GateService) dropLane(groupID string, l *lane) {
	s.lanesMu.Lock()
	defer s.lanesMu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(s.lanes, groupID)
	}
}

func (s *GateService) laneCount() int {
	s.lanesMu.Lock()
	defer s.lanesMu.Unlock()
	return len(s.lanes)
}
