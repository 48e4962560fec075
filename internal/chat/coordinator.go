package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/withstudy/tutor/internal/ai"
	"github.com/withstudy/tutor/internal/apperr"
	"github.com/withstudy/tutor/internal/common"
	"github.com/withstudy/tutor/internal/models"
	"github.com/withstudy/tutor/internal/telemetry"
	"github.com/withstudy/tutor/internal/timeutil"
	"github.com/withstudy/tutor/internal/usage"
	"gorm.io/gorm"
)

// ContextResolver yields the student's personalized context text.
type ContextResolver interface {
	Resolve(ctx context.Context, st *models.Student) (string, error)
}

type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TurnRequest struct {
	Student *models.Student
	Subject string
	Prompt  string
	History []HistoryMessage
	// Context is optional client-supplied text appended after the student's
	// personalized context.
	Context string
}

type TurnResult struct {
	Reply           string
	SessionID       string
	TokensEstimated *int
}

type CoordinatorConfig struct {
	Provider    string
	Model       string
	BasePrompt  string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

var errEmptyReply = errors.New("ai provider returned an empty response")

// Coordinator runs one chat turn end to end.
type Coordinator struct {
	cfg       CoordinatorConfig
	docs      ContextResolver
	tracker   *Tracker
	usage     *usage.Aggregator
	providers *ai.Registry
	clock     timeutil.Clock
	events    usage.EventSink
	log       *logrus.Logger
}

func NewCoordinator(cfg CoordinatorConfig, docs ContextResolver, tracker *Tracker, rec *usage.Aggregator, providers *ai.Registry, clock timeutil.Clock, events usage.EventSink, log *logrus.Logger) *Coordinator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Coordinator{
		cfg:       cfg,
		docs:      docs,
		tracker:   tracker,
		usage:     rec,
		providers: providers,
		clock:     clock,
		events:    events,
		log:       log,
	}
}

// Submit handles one inbound turn. Validation, auth and configuration
// problems are reported before anything is written. Once the user message
// is stored the turn is always closed, but only a successful reply earns
// assistant-side credit.
func (c *Coordinator) Submit(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	if req.Student == nil {
		return nil, apperr.Auth("authentication required")
	}
	subject, err := models.ParseSubject(req.Subject)
	if err != nil {
		return nil, err
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, apperr.Validation("provide a prompt for the tutor")
	}

	provider, err := c.providers.Get(ctx, c.cfg.Provider, c.cfg.Model)
	if err != nil {
		return nil, err
	}

	// store writes must complete even if the caller goes away mid-turn
	sctx := context.WithoutCancel(ctx)
	st := req.Student

	contextText, err := c.docs.Resolve(sctx, st)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	sess, _, err := c.tracker.GetOrCreateTodaySession(sctx, st.ID, subject, now)
	if err != nil {
		return nil, err
	}
	log := c.log.WithFields(logrus.Fields{
		"student_id": st.ID,
		"subject":    subject,
		"session_id": sess.SessionID,
		"day":        sess.Day,
	})

	newSession, err := c.recordUserTurn(sctx, sess, prompt)
	if err != nil {
		return nil, err
	}
	if newSession {
		telemetry.CountSessionCreated(string(subject))
	}

	messages := make([]ai.Message, 0, len(req.History)+2)
	messages = append(messages, ai.Message{Role: "system", Content: c.systemPrompt(subject, contextText, req.Context)})
	messages = append(messages, filterHistory(req.History)...)
	messages = append(messages, ai.Message{Role: RoleUser, Content: prompt})

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	start := time.Now()
	reply, callErr := provider.Chat(callCtx, ai.Request{
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	cancel()
	if callErr == nil && strings.TrimSpace(reply.Text) == "" {
		callErr = errEmptyReply
	}

	if callErr != nil {
		telemetry.ObserveAIRequest(provider.Name(), "error", time.Since(start))
		log.WithError(callErr).Warn("tutor reply failed")
		c.failTurn(sctx, log, sess, newSession)
		return nil, apperr.Upstream("the tutor could not respond, please try again", callErr)
	}
	telemetry.ObserveAIRequest(provider.Name(), "ok", time.Since(start))

	text := strings.TrimSpace(reply.Text)
	if _, err := c.tracker.AppendMessage(sctx, sess, RoleAssistant, text, reply.UsageTokens); err != nil {
		log.WithError(err).Error("failed to store tutor reply")
		c.failTurn(sctx, log, sess, newSession)
		return nil, err
	}
	delta, err := c.tracker.CloseTurn(sctx, sess, c.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := c.usage.RecordAssistantTurn(sctx, st.ID, subject, sess.Day, delta, reply.UsageTokens); err != nil {
		return nil, err
	}

	telemetry.CountTurn(string(subject), string(usage.OutcomeReplied))
	c.publish(sctx, log, sess, newSession, usage.OutcomeReplied, delta, reply.UsageTokens)
	log.WithFields(logrus.Fields{"duration_delta": delta}).Debug("turn completed")

	return &TurnResult{Reply: text, SessionID: sess.SessionID, TokensEstimated: reply.UsageTokens}, nil
}

// recordUserTurn stores the prompt and counts it in one transaction. The
// session is counted by the first turn that records into it.
func (c *Coordinator) recordUserTurn(ctx context.Context, sess *Session, prompt string) (bool, error) {
	var newSession bool
	wasCounted := sess.Counted
	err := c.tracker.InTx(ctx, func(tx *gorm.DB) error {
		tr := c.tracker.WithTx(tx)
		if _, err := tr.AppendMessage(ctx, sess, RoleUser, prompt, nil); err != nil {
			return err
		}
		claimed, err := tr.ClaimSessionCount(ctx, sess)
		if err != nil {
			return err
		}
		newSession = claimed
		return c.usage.WithTx(tx).RecordUserTurn(ctx, sess.StudentID, sess.Subject, sess.Day, claimed)
	})
	if err != nil {
		sess.Counted = wasCounted
		if apperr.KindOf(err) == apperr.KindUnknown {
			err = apperr.Persistence("failed to record chat turn", err)
		}
		return false, err
	}
	return newSession, nil
}

// failTurn closes a turn that earned no assistant credit.
func (c *Coordinator) failTurn(ctx context.Context, log *logrus.Entry, sess *Session, newSession bool) {
	delta, err := c.tracker.CloseTurn(ctx, sess, c.clock.Now())
	if err != nil {
		log.WithError(err).Error("failed to close turn")
	}
	telemetry.CountTurn(string(sess.Subject), string(usage.OutcomeFailed))
	c.publish(ctx, log, sess, newSession, usage.OutcomeFailed, delta, nil)
}

func (c *Coordinator) systemPrompt(subject models.Subject, contextText, clientContext string) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{c.cfg.BasePrompt, subject.Info().Tutor, contextText, clientContext} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n\n")
}

func (c *Coordinator) publish(ctx context.Context, log *logrus.Entry, sess *Session, newSession bool, outcome usage.Outcome, delta int64, tokens *int) {
	if c.events == nil {
		return
	}
	id, err := common.NewULID()
	if err != nil {
		log.WithError(err).Warn("usage event id")
		return
	}
	err = c.events.PublishTurn(ctx, usage.TurnEvent{
		EventID:         id,
		StudentID:       sess.StudentID,
		Subject:         sess.Subject,
		Day:             sess.Day,
		SessionID:       sess.SessionID,
		NewSession:      newSession,
		Outcome:         outcome,
		DurationSeconds: delta,
		Tokens:          tokens,
		OccurredAt:      c.clock.Now(),
	})
	if err != nil {
		telemetry.CountEventPublished("error")
		log.WithError(err).Warn("failed to publish usage event")
		return
	}
	telemetry.CountEventPublished("ok")
}

// filterHistory keeps well-formed prior turns only.
func filterHistory(in []HistoryMessage) []ai.Message {
	out := make([]ai.Message, 0, len(in))
	for _, m := range in {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			continue
		}
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		out = append(out, ai.Message{Role: m.Role, Content: m.Content})
	}
	return out
}
