package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonschema"

	"simrs-agent/internal/domain"
	"simrs-agent/internal/infra/logger"
	"simrs-agent/internal/infra/tracer"
)

// decisionSchema constrains the router's backend output. It is sent to the
// backend as the response schema and used again locally to validate whatever
// comes back, so a confabulated target can never reach the dispatcher.
const decisionSchema = `{
	"type": "object",
	"properties": {
		"route": {
			"type": "string",
			"enum": ["REGISTRATION", "EMR", "BILLING", "APPOINTMENT"]
		},
		"reasoning": {"type": "string"},
		"parameters": {"type": "object"}
	},
	"required": ["route", "reasoning"]
}`

const fallbackRationale = "Error in routing, falling back to Registration."

// fallbackDecision is returned for every classification failure. Routing is
// fail-open: the conversation proceeds on a degraded decision rather than
// stalling on an error.
func fallbackDecision() domain.RoutingDecision {
	return domain.RoutingDecision{
		Target:     domain.AgentRegistration,
		Rationale:  fallbackRationale,
		Parameters: map[string]any{},
	}
}

// IntentRouter classifies a user utterance into a routing decision.
type IntentRouter struct {
	provider domain.LLMProvider
	mock     bool
	schema   *jsonschema.Schema
	logger   *slog.Logger
}

// NewIntentRouter creates a router backed by provider. When mock is true the
// provider is never called and the rule-based classifier is used instead.
func NewIntentRouter(provider domain.LLMProvider, mock bool, log *slog.Logger) *IntentRouter {
	if log == nil {
		log = logger.Discard()
	}
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile([]byte(decisionSchema))
	if err != nil {
		// The schema is a compile-time constant; failing to compile it is a
		// programming error, not a runtime condition.
		panic("router: compile decision schema: " + err.Error())
	}
	return &IntentRouter{
		provider: provider,
		mock:     mock,
		schema:   schema,
		logger:   log,
	}
}

// Classify maps one utterance to a routing decision. It never returns an
// error: every backend or parse failure resolves to the fallback decision,
// and the returned target is always dispatchable.
func (r *IntentRouter) Classify(ctx context.Context, utterance string) domain.RoutingDecision {
	ctx, span := tracer.StartSpan(ctx, "router.classify")
	defer span.End()

	if r.mock {
		decision := ClassifyOffline(utterance)
		span.SetAttributes(
			tracer.StringAttr("router.target", string(decision.Target)),
			tracer.StringAttr("router.mode", "offline"),
		)
		tracer.SetOK(span)
		return decision
	}

	persona, _ := domain.PersonaFor(domain.AgentRouter)
	resp, err := r.provider.Chat(ctx, domain.ChatRequest{
		System:         persona.Instruction,
		Content:        utterance,
		ResponseSchema: json.RawMessage(decisionSchema),
	})
	if err != nil {
		r.logger.Warn("classification backend failed, using fallback", "error", err)
		tracer.RecordError(span, err)
		return fallbackDecision()
	}

	decision, err := parseDecision(resp.Content, r.schema)
	if err != nil {
		r.logger.Warn("classification output rejected, using fallback", "error", err)
		tracer.RecordError(span, err)
		return fallbackDecision()
	}

	span.SetAttributes(tracer.StringAttr("router.target", string(decision.Target)))
	tracer.SetOK(span)
	r.logger.Debug("utterance classified",
		"target", decision.Target,
		"rationale", decision.Rationale,
	)
	return decision
}

// parseDecision validates raw backend output structurally and decodes it.
func parseDecision(raw string, schema *jsonschema.Schema) (domain.RoutingDecision, error) {
	raw = stripCodeFences(raw)
	if raw == "" {
		return domain.RoutingDecision{}, domain.NewDomainError("Router.Classify", domain.ErrEmptyCompletion, "")
	}

	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return domain.RoutingDecision{}, domain.NewDomainError("Router.Classify", domain.ErrBadDecision, err.Error())
	}
	if result := schema.Validate(parsed); !result.IsValid() {
		return domain.RoutingDecision{}, domain.NewDomainError("Router.Classify", domain.ErrBadDecision, result.Error())
	}

	var decision domain.RoutingDecision
	if err := json.Unmarshal([]byte(raw), &decision); err != nil {
		return domain.RoutingDecision{}, domain.NewDomainError("Router.Classify", domain.ErrBadDecision, err.Error())
	}
	if !decision.Target.Dispatchable() {
		return domain.RoutingDecision{}, domain.NewDomainError("Router.Classify", domain.ErrBadDecision, "target not dispatchable: "+string(decision.Target))
	}
	if decision.Parameters == nil {
		decision.Parameters = map[string]any{}
	}
	return decision, nil
}

// Keyword sets for the offline classifier, checked in order. First match wins.
var offlineRules = []struct {
	keywords  []string
	target    domain.AgentID
	rationale string
}{
	{[]string{"biaya", "bayar", "faktur"}, domain.AgentBilling, "Keyword: Biaya"},
	{[]string{"sakit", "obat", "diagnosa"}, domain.AgentEMR, "Keyword: Medis"},
	{[]string{"jadwal", "temu", "dokter"}, domain.AgentAppointment, "Keyword: Jadwal"},
}

// ClassifyOffline is the rule-based classifier used when no backend
// credential is configured. It is a pure function of the lowercased input.
func ClassifyOffline(utterance string) domain.RoutingDecision {
	m := strings.ToLower(utterance)
	for _, rule := range offlineRules {
		for _, kw := range rule.keywords {
			if strings.Contains(m, kw) {
				return domain.RoutingDecision{
					Target:     rule.target,
					Rationale:  rule.rationale,
					Parameters: map[string]any{},
				}
			}
		}
	}
	return domain.RoutingDecision{
		Target:     domain.AgentRegistration,
		Rationale:  "Default",
		Parameters: map[string]any{},
	}
}

// codeFenceRe matches markdown code fences wrapping JSON.
var codeFenceRe = regexp.MustCompile(`(?si)^` + "```" + `(?:json)?\s*(.*?)\s*` + "```" + `$`)

// stripCodeFences removes markdown code fences if the backend wrapped its output.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if m := codeFenceRe.FindStringSubmatch(s); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return s
}
