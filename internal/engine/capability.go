package engine

import "strings"

// Capability is one feature a host may provide.
type Capability uint8

const (
	Detection Capability = 1 << iota
	Translation
	Summarization
)

// All lists every capability in display order.
var All = []Capability{Detection, Translation, Summarization}

func (c Capability) String() string {
	switch c {
	case Detection:
		return "detection"
	case Translation:
		return "translation"
	case Summarization:
		return "summarization"
	default:
		return "unknown"
	}
}

// Set is the negotiated combination of capabilities a host provides.
type Set uint8

// Has reports whether c is in the set.
func (s Set) Has(c Capability) bool {
	return s&Set(c) != 0
}

// With returns the set plus c.
func (s Set) With(c Capability) Set {
	return s | Set(c)
}

// List returns the capabilities in the set.
func (s Set) List() []Capability {
	var out []Capability
	for _, c := range All {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Map returns a name -> present view, for JSON encoding.
func (s Set) Map() map[string]bool {
	m := make(map[string]bool, len(All))
	for _, c := range All {
		m[c.String()] = s.Has(c)
	}
	return m
}

func (s Set) String() string {
	names := make([]string, 0, len(All))
	for _, c := range s.List() {
		names = append(names, c.String())
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// Negotiate asks h once which capabilities it offers.
func Negotiate(h Host) Set {
	var s Set
	if h == nil {
		return s
	}
	if h.LanguageDetector() != nil {
		s = s.With(Detection)
	}
	if h.Translator() != nil {
		s = s.With(Translation)
	}
	if h.Summarizer() != nil {
		s = s.With(Summarization)
	}
	return s
}
