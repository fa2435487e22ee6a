package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"simrs-agent/internal/domain"
	"simrs-agent/internal/infra/logger"
	"simrs-agent/internal/infra/tracer"
)

const greetingText = "Selamat datang di SIMRS AI Agent System. Saya adalah Central Hub. Apa yang bisa saya bantu hari ini? (Pendaftaran, Rekam Medis, Billing, atau Janji Temu)"

const systemApology = "Maaf, terjadi kesalahan sistem. Mohon coba lagi."

// defaultIdleResetDelay is how long after a turn completes the active agent
// indicator falls back to the router.
const defaultIdleResetDelay = 2 * time.Second

// Orchestrator drives the two-stage pipeline and owns the conversation
// ledger. All methods are safe for concurrent use.
type Orchestrator struct {
	router     *IntentRouter
	dispatcher *Dispatcher
	idleDelay  time.Duration
	logger     *slog.Logger

	mu          sync.Mutex
	ledger      []domain.Turn
	activeAgent domain.AgentID
	processing  bool
	turnSeq     uint64
}

// NewOrchestrator creates an orchestrator whose ledger starts with the
// Central Hub greeting. idleDelay <= 0 selects the default.
func NewOrchestrator(router *IntentRouter, dispatcher *Dispatcher, idleDelay time.Duration, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = logger.Discard()
	}
	if idleDelay <= 0 {
		idleDelay = defaultIdleResetDelay
	}
	o := &Orchestrator{
		router:      router,
		dispatcher:  dispatcher,
		idleDelay:   idleDelay,
		logger:      log,
		activeAgent: domain.AgentRouter,
	}
	o.ledger = append(o.ledger, domain.NewTurn(domain.RoleAgent, domain.AgentRouter, greetingText))
	return o
}

// Submit runs one full turn: record the utterance, classify it, dispatch to
// the chosen agent, and record the reply. It returns the reply turn. The only
// error it reports is an empty utterance; pipeline failures are absorbed into
// the ledger as a system apology turn.
func (o *Orchestrator) Submit(ctx context.Context, utterance string) (domain.Turn, error) {
	if strings.TrimSpace(utterance) == "" {
		return domain.Turn{}, domain.NewDomainError("Orchestrator.Submit", domain.ErrInvalidInput, "empty utterance")
	}

	ctx, span := tracer.StartSpan(ctx, "orchestrator.submit")
	defer span.End()

	o.mu.Lock()
	o.turnSeq++
	seq := o.turnSeq
	o.processing = true
	o.activeAgent = domain.AgentRouter
	o.ledger = append(o.ledger, domain.NewTurn(domain.RoleUser, "", utterance))
	history := make([]domain.Turn, len(o.ledger))
	copy(history, o.ledger)
	o.mu.Unlock()

	reply := o.runTurn(ctx, utterance, history)

	o.mu.Lock()
	o.processing = false
	o.mu.Unlock()
	o.scheduleIdleReset(seq)

	span.SetAttributes(tracer.StringAttr("orchestrator.agent", string(reply.Agent)))
	tracer.SetOK(span)
	return reply, nil
}

// runTurn executes classification and dispatch, appending the routing notice
// and the reply to the ledger. A panic anywhere in the pipeline is converted
// into a system apology turn so the conversation always advances.
func (o *Orchestrator) runTurn(ctx context.Context, utterance string, history []domain.Turn) (reply domain.Turn) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("turn pipeline failed", "panic", fmt.Sprint(r))
			reply = domain.NewTurn(domain.RoleAgent, domain.AgentSystem, systemApology)
			o.mu.Lock()
			o.ledger = append(o.ledger, reply)
			o.mu.Unlock()
		}
	}()

	decision := o.router.Classify(ctx, utterance)

	o.mu.Lock()
	o.activeAgent = decision.Target
	o.ledger = append(o.ledger, domain.NewTurn(domain.RoleNotice, "", fmt.Sprintf("Routing to %s...", decision.Target)))
	o.mu.Unlock()

	o.logger.Info("utterance routed",
		"target", decision.Target,
		"rationale", decision.Rationale,
	)

	content := o.dispatcher.Respond(ctx, decision.Target, utterance, decision.Parameters, history)

	reply = domain.NewTurn(domain.RoleAgent, decision.Target, content)
	reply.Rationale = decision.Rationale

	o.mu.Lock()
	o.ledger = append(o.ledger, reply)
	o.mu.Unlock()
	return reply
}

// scheduleIdleReset arms a timer that returns the active agent indicator to
// the router once the conversation has been quiet for the idle delay. The
// timer is keyed to the turn sequence so a timer armed by an older turn
// never clobbers the state of a newer one.
func (o *Orchestrator) scheduleIdleReset(seq uint64) {
	time.AfterFunc(o.idleDelay, func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if o.turnSeq != seq || o.processing {
			return
		}
		o.activeAgent = domain.AgentRouter
	})
}

// Reset discards the conversation, keeping only the greeting. In-flight
// idle-reset timers become no-ops.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.turnSeq++
	o.processing = false
	o.activeAgent = domain.AgentRouter
	o.ledger = o.ledger[:1]
	o.logger.Info("conversation reset")
}

// Ledger returns a copy of the conversation turns in order.
func (o *Orchestrator) Ledger() []domain.Turn {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]domain.Turn, len(o.ledger))
	copy(out, o.ledger)
	return out
}

// ActiveAgent returns the agent the conversation is currently attending to.
func (o *Orchestrator) ActiveAgent() domain.AgentID {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.activeAgent
}

// Processing reports whether a turn is currently in flight.
func (o *Orchestrator) Processing() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.processing
}
