package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"simrs-agent/internal/domain"
	"simrs-agent/internal/infra/logger"
	"simrs-agent/internal/infra/tracer"
)

// Fixed replies. Callers of Respond never receive an empty string and never
// see a backend error.
const (
	busyReply        = "Maaf, sistem sedang sibuk."
	subsystemApology = "Terjadi kesalahan pada sub-sistem agen. Silakan coba lagi."
)

// Canned per-agent replies for mock mode.
var mockReplies = map[domain.AgentID]string{
	domain.AgentBilling:     "Estimasi biaya rawat jalan adalah Rp 150.000. Apakah Anda menggunakan BPJS?",
	domain.AgentEMR:         "Berdasarkan catatan terakhir, tekanan darah Anda 120/80.\n\n🔒 Data dilindungi privasi.",
	domain.AgentAppointment: "Jadwal tersedia besok jam 10 pagi dengan Dr. Santoso.",
}

const mockDefaultReply = "Mohon lengkapi data KTP Anda untuk pendaftaran."

// MockReply returns the canned reply for a dispatch target. It is a pure
// function, mirrored from the router's offline classifier so both mock paths
// can be exercised without any external dependency.
func MockReply(target domain.AgentID) string {
	if reply, ok := mockReplies[target]; ok {
		return reply
	}
	return mockDefaultReply
}

// Dispatcher generates a persona-appropriate reply for a routing decision.
type Dispatcher struct {
	provider     domain.LLMProvider
	mock         bool
	historyLimit int
	logger       *slog.Logger
}

// NewDispatcher creates a dispatcher backed by provider. When mock is true
// the provider is never called and canned replies are returned instead.
// historyLimit caps the prior turns forwarded to the backend; 0 means all.
func NewDispatcher(provider domain.LLMProvider, mock bool, historyLimit int, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = logger.Discard()
	}
	return &Dispatcher{
		provider:     provider,
		mock:         mock,
		historyLimit: historyLimit,
		logger:       log,
	}
}

// Respond invokes the target agent's persona with enriched context and
// returns the generated reply. It never returns an empty string and never
// propagates a backend failure: empty output becomes a fixed busy message and
// errors become a fixed sub-system apology.
func (d *Dispatcher) Respond(ctx context.Context, target domain.AgentID, utterance string, params map[string]any, history []domain.Turn) string {
	ctx, span := tracer.StartSpan(ctx, "dispatcher.respond",
		trace.WithAttributes(tracer.StringAttr("dispatcher.target", string(target))),
	)
	defer span.End()

	persona, ok := domain.PersonaFor(target)
	if !ok || !target.Dispatchable() {
		d.logger.Error("dispatch target not dispatchable", "target", target)
		tracer.RecordError(span, domain.ErrInvalidInput)
		return subsystemApology
	}

	if d.mock {
		span.SetAttributes(tracer.StringAttr("dispatcher.mode", "offline"))
		tracer.SetOK(span)
		return MockReply(target)
	}

	resp, err := d.provider.Chat(ctx, domain.ChatRequest{
		System:  persona.Instruction,
		History: toChatHistory(history, d.historyLimit),
		Content: enrichUtterance(utterance, params),
	})
	if err != nil {
		d.logger.Warn("dispatch backend failed", "target", target, "error", err)
		tracer.RecordError(span, err)
		return subsystemApology
	}
	if resp.Content == "" {
		d.logger.Warn("dispatch backend returned empty reply", "target", target)
		span.SetAttributes(tracer.StringAttr("dispatcher.result", "empty"))
		tracer.SetOK(span)
		return busyReply
	}

	tracer.SetOK(span)
	d.logger.Debug("dispatch completed", "target", target, "reply_len", len(resp.Content))
	return resp.Content
}

// enrichUtterance embeds the router's extracted parameters and the original
// utterance into the prompt, so sub-agents receive structured hints without
// re-deriving them from raw text. Parameters are forwarded opaquely.
func enrichUtterance(utterance string, params map[string]any) string {
	serialized, err := json.Marshal(params)
	if err != nil {
		serialized = []byte("{}")
	}
	return fmt.Sprintf(`[CONTEXT DARI CENTRAL HUB]
Parameter yang diekstrak: %s
Permintaan User Asli: %q

Silakan proses permintaan ini sesuai persona Anda.`, serialized, utterance)
}

// toChatHistory converts ledger turns to the two-role sequence the backend
// accepts: user turns keep the user role, everything else becomes model.
func toChatHistory(history []domain.Turn, limit int) []domain.ChatMessage {
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	msgs := make([]domain.ChatMessage, 0, len(history))
	for _, t := range history {
		role := domain.ChatRoleModel
		if t.Role == domain.RoleUser {
			role = domain.ChatRoleUser
		}
		msgs = append(msgs, domain.ChatMessage{Role: role, Content: t.Content})
	}
	return msgs
}
