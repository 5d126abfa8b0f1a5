package agent

import "strings"

// TopicGate classifies a raw query as in-domain or not. A single
// case-insensitive substring match against the keyword list is sufficient;
// there is no scoring, negation, or stemming. The gate is the sole
// authority for the reject path.
type TopicGate struct {
	keywords []string
}

func NewTopicGate(keywords []string) *TopicGate {
	return &TopicGate{keywords: lowerAll(keywords)}
}

func (g *TopicGate) InDomain(query string) bool {
	return matchAny(g.keywords, query)
}

// SearchHeuristic decides whether a query needs live-retrieval
// augmentation. Its keyword list (temporal/price terms) is maintained
// independently of the TopicGate's and the two may disagree.
type SearchHeuristic struct {
	keywords []string
}

func NewSearchHeuristic(keywords []string) *SearchHeuristic {
	return &SearchHeuristic{keywords: lowerAll(keywords)}
}

func (h *SearchHeuristic) NeedsRetrieval(query string) bool {
	return matchAny(h.keywords, query)
}

func matchAny(keywords []string, query string) bool {
	q := strings.ToLower(query)
	for _, k := range keywords {
		if strings.Contains(q, k) {
			return true
		}
	}
	return false
}

func lowerAll(keywords []string) []string {
	out := make([]string, len(keywords))
	for i, k := range keywords {
		out[i] = strings.ToLower(k)
	}
	return out
}
