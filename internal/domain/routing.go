package domain

// RoutingDecision is the outcome of classifying one user utterance.
// Target is always one of the four dispatchable agents; the router downgrades
// every classification failure to a fallback decision instead of surfacing an
// error, so consumers never see ROUTER or SYSTEM here.
type RoutingDecision struct {
	Target     AgentID        `json:"route"`
	Rationale  string         `json:"reasoning"`
	Parameters map[string]any `json:"parameters"`
}
