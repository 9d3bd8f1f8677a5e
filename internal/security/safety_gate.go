package security

import "strings"

// deniedKeywords lists every statement verb that mutates data or table
// structure. A candidate query containing any of them as a standalone
// word is rejected before it can reach the database, regardless of what
// the intent classifier decided.
var deniedKeywords = []string{
	"ADD", "DROP", "DELETE", "UPDATE", "INSERT",
	"GRANT", "REVOKE", "ALTER", "TRUNCATE", "CREATE",
}

// SafetyGate is the deterministic, stateless checkpoint in front of all
// query execution. It is independent of the classifier: classification is
// probabilistic, the gate is not.
type SafetyGate struct {
	denySet map[string]bool
}

func NewSafetyGate() *SafetyGate {
	set := make(map[string]bool, len(deniedKeywords))
	for _, kw := range deniedKeywords {
		set[kw] = true
	}
	return &SafetyGate{denySet: set}
}

// Authorize scans the candidate query and returns (false, keyword) on the
// first deny-listed standalone token, or (true, "") when the query is
// free of them. Matching is case-insensitive and token-based: UPDATE
// inside an identifier like updated_at does not trigger.
func (g *SafetyGate) Authorize(sql string) (bool, string) {
	for _, tok := range tokenize(sql) {
		if g.denySet[tok] {
			return false, tok
		}
	}
	return true, ""
}

// tokenize splits the query into uppercase word tokens. A word is a
// maximal run of letters, digits, and underscores, so keywords embedded
// in identifiers stay part of the identifier token.
func tokenize(sql string) []string {
	var tokens []string
	start := -1
	for i, r := range sql {
		if isWordRune(r) {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 {
			tokens = append(tokens, strings.ToUpper(sql[start:i]))
			start = -1
		}
	}
	if start != -1 {
		tokens = append(tokens, strings.ToUpper(sql[start:]))
	}
	return tokens
}

func isWordRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
