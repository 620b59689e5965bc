// Package modes defines the knowledge modes the analysis backend honors per
// chat turn. A mode is configuration only: the client passes its wire key
// through to the chat API and uses the metadata for display, nothing branches
// on it beyond that.
package modes

import (
	"fmt"
	"strings"
)

// KnowledgeMode selects the retrieval/answering policy for a chat turn.
type KnowledgeMode int

const (
	Strict KnowledgeMode = iota // answers drawn only from uploaded documents
	Augmented                   // documents plus live web search
	Expert                      // documents blended with the model's own knowledge
)

// Default is the mode active before the user picks one.
const Default = Strict

// meta is indexed by KnowledgeMode; order here is display order.
var meta = [...]struct {
	key, name, desc, icon string
}{
	{"strict", "Strict", "Answers come only from your uploaded documents.", "🔒"},
	{"augmented", "Augmented", "Your documents plus live web search results.", "🌐"},
	{"expert", "Expert", "Your documents combined with the model's own expertise.", "🧠"},
}

// Valid reports whether m is one of the declared modes.
func (m KnowledgeMode) Valid() bool {
	return m >= 0 && int(m) < len(meta)
}

// Key returns the wire value sent to the chat API.
func (m KnowledgeMode) Key() string {
	if !m.Valid() {
		return "unknown"
	}
	return meta[m].key
}

// DisplayName returns the human-facing name shown in the picker and header.
func (m KnowledgeMode) DisplayName() string {
	if !m.Valid() {
		return "Unknown"
	}
	return meta[m].name
}

// Description returns the one-line explanation used by the banner animation.
func (m KnowledgeMode) Description() string {
	if !m.Valid() {
		return ""
	}
	return meta[m].desc
}

// Icon returns the single-rune marker rendered next to the name.
func (m KnowledgeMode) Icon() string {
	if !m.Valid() {
		return "?"
	}
	return meta[m].icon
}

// String returns the display name
func (m KnowledgeMode) String() string { return m.DisplayName() }

// All returns the modes in display order.
func All() []KnowledgeMode {
	return []KnowledgeMode{Strict, Augmented, Expert}
}

// Parse maps a wire key (case-insensitive) back to its mode.
func Parse(key string) (KnowledgeMode, error) {
	k := strings.ToLower(strings.TrimSpace(key))
	for i := range meta {
		if meta[i].key == k {
			return KnowledgeMode(i), nil
		}
	}
	return Default, fmt.Errorf("unknown knowledge mode %q", key)
}
