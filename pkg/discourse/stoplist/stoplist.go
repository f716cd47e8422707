package stoplist

// Manager holds the stopword set applied to segmented tokens before topic
// modeling.
type Manager struct {
	stops map[string]struct{}
}

// NewManager creates a manager seeded with initialStops.
func NewManager(initialStops []string) *Manager {
	stops := make(map[string]struct{}, len(initialStops))
	for _, s := range initialStops {
		if s == "" {
			continue
		}
		stops[s] = struct{}{}
	}
	return &Manager{stops: stops}
}

// IsStop checks if a token is a stopword
func (m *Manager) IsStop(token string) bool {
	_, ok := m.stops[token]
	return ok
}

// Len returns the number of stopwords.
func (m *Manager) Len() int { return len(m.stops) }

// Filter returns tokens with stopwords removed. The input slice is not
// modified. A nil manager filters nothing.
func (m *Manager) Filter(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if m != nil && m.IsStop(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}
