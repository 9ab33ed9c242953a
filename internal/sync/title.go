// Package sync implements the incremental synchronization and
// entity-normalization engine: deciding what GitHub history to fetch,
// parsing PR titles and file paths into normalized entities, and keeping
// the persisted rows and derived rollups consistent.
package sync

import (
	"regexp"
	"strconv"
	"strings"
)

// primaryTitleRE matches the structured task-title grammar:
// <trainer>-<domain>-<interfaceNum>-<complexity>-<timestamp>. The trainer
// capture is non-greedy so hyphenated trainer names only absorb segments
// the rest of the grammar cannot account for. The domain segment carries
// no hyphens; compound domains written with hyphens are recovered by the
// repair step below.
var primaryTitleRE = regexp.MustCompile(`^([a-zA-Z0-9._-]+?)-([a-zA-Z0-9_]+)-([0-9]+)-(expert|hard|medium)-([0-9]{10})$`)

// fallbackTitleRE is the looser legacy grammar: no mandatory interface
// number or complexity position, only a trailing creation timestamp.
var fallbackTitleRE = regexp.MustCompile(`^([a-zA-Z0-9._-]+?)-([a-zA-Z0-9_]+)-.*-([0-9]{10})[0-9]*$`)

// ParsedTitle is the structured identifier extracted from a PR title.
type ParsedTitle struct {
	Trainer      string
	Domain       string
	InterfaceNum int
	Complexity   string
	Timestamp    string
}

// TitleParser parses task identifiers out of PR titles. Title-pattern match
// is the sync eligibility gate: titles that match neither grammar exclude
// the PR from sync entirely.
type TitleParser struct {
	known func(domain string) bool
}

// NewTitleParser creates a parser that validates domains against the given
// allow-list predicate (normally config.Snapshot.KnownDomain).
func NewTitleParser(known func(domain string) bool) *TitleParser {
	if known == nil {
		known = func(string) bool { return false }
	}
	return &TitleParser{known: known}
}

// Parse extracts a ParsedTitle from a PR title. Returns nil, false when the
// title matches neither the primary nor the fallback grammar.
func (p *TitleParser) Parse(title string) (*ParsedTitle, bool) {
	if m := primaryTitleRE.FindStringSubmatch(title); m != nil {
		num, _ := strconv.Atoi(m[3])
		parsed := &ParsedTitle{
			Trainer:      m[1],
			Domain:       NormalizeDomain(m[2]),
			InterfaceNum: num,
			Complexity:   m[4],
			Timestamp:    m[5],
		}
		p.repairDomain(parsed)
		return parsed, true
	}

	if m := fallbackTitleRE.FindStringSubmatch(title); m != nil {
		parsed := &ParsedTitle{
			Trainer:      m[1],
			Domain:       NormalizeDomain(m[2]),
			InterfaceNum: 0,
			Complexity:   scanComplexity(title),
			Timestamp:    m[3],
		}
		p.repairDomain(parsed)
		return parsed, true
	}

	return nil, false
}

// repairDomain handles titles where a compound domain like hr_management
// was written with a hyphen and therefore mis-split: the leading fragment
// ends up as the trainer's trailing segment and only the suffix is captured
// as the domain. Borrow the trainer's last hyphen segment as a domain
// prefix and, when the combined name is in the known set, prefer it: the
// compound explains more of the title than the bare suffix (fund-finance
// resolves to fund_finance even though finance is itself a known domain).
//
// Heuristic: a trainer name that genuinely ends in a segment matching a
// domain-fragment word is indistinguishable from a mis-split and will be
// repaired anyway.
func (p *TitleParser) repairDomain(parsed *ParsedTitle) {
	idx := strings.LastIndex(parsed.Trainer, "-")
	if idx <= 0 {
		return
	}
	candidate := NormalizeDomain(parsed.Trainer[idx+1:]) + "_" + parsed.Domain
	if p.known(candidate) {
		parsed.Trainer = parsed.Trainer[:idx]
		parsed.Domain = candidate
	}
}

// NormalizeDomain lowercases a domain name and folds hyphens to
// underscores so entity lookups never split on separator or case variants.
func NormalizeDomain(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "-", "_")
}

// scanComplexity finds a complexity keyword anywhere in a legacy-format
// title, defaulting to "unknown".
func scanComplexity(title string) string {
	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "expert"):
		return "expert"
	case strings.Contains(lower, "hard"):
		return "hard"
	case strings.Contains(lower, "medium"):
		return "medium"
	}
	return "unknown"
}
