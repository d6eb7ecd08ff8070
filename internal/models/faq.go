package models

import (
	"strings"
	"time"
)

// FAQ is a canned question/answer entry. Keywords holds the
// comma-separated trigger tokens matched against inbound messages.
// An empty Sector means the entry applies to every customer sector.
type FAQ struct {
	ID        int64     `json:"id"`
	Keywords  string    `json:"domanda_keywords"`
	Question  string    `json:"domanda_completa"`
	Answer    string    `json:"risposta"`
	Sector    string    `json:"settore"`
	Priority  int       `json:"priorita"`
	CreatedAt time.Time `json:"data_creazione"`
}

// KeywordTokens splits the trigger field into trimmed, lower-cased
// tokens. Empty tokens are dropped.
func (f *FAQ) KeywordTokens() []string {
	parts := strings.Split(f.Keywords, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}
