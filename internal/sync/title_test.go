package sync

import "testing"

// testKnownDomains mirrors the default allow-list entries the tests need.
var testKnownDomains = map[string]bool{
	"finance":                true,
	"fund_finance":           true,
	"hr_experts":             true,
	"hr_management":          true,
	"hr_payroll":             true,
	"smart_home":             true,
	"incident_management":    true,
	"it_incident_management": true,
}

func testTitleParser() *TitleParser {
	return NewTitleParser(func(d string) bool { return testKnownDomains[d] })
}

func TestParse_PrimaryGrammar(t *testing.T) {
	p := testTitleParser()

	tests := []struct {
		title string
		want  ParsedTitle
	}{
		{
			title: "jordan-finance-2-medium-1712345678",
			want:  ParsedTitle{Trainer: "jordan", Domain: "finance", InterfaceNum: 2, Complexity: "medium", Timestamp: "1712345678"},
		},
		{
			title: "alex-fund-finance-3-hard-1712345678",
			want:  ParsedTitle{Trainer: "alex", Domain: "fund_finance", InterfaceNum: 3, Complexity: "hard", Timestamp: "1712345678"},
		},
		{
			title: "priya-hr-management-1-expert-1798765432",
			want:  ParsedTitle{Trainer: "priya", Domain: "hr_management", InterfaceNum: 1, Complexity: "expert", Timestamp: "1798765432"},
		},
		{
			title: "lee.min-hr_payroll-12-medium-1712345678",
			want:  ParsedTitle{Trainer: "lee.min", Domain: "hr_payroll", InterfaceNum: 12, Complexity: "medium", Timestamp: "1712345678"},
		},
		{
			// Separator and case variants fold to the canonical name.
			title: "sam-Fund-Finance-4-hard-1712345678",
			want:  ParsedTitle{Trainer: "sam", Domain: "fund_finance", InterfaceNum: 4, Complexity: "hard", Timestamp: "1712345678"},
		},
	}

	for _, tt := range tests {
		got, ok := p.Parse(tt.title)
		if !ok {
			t.Errorf("Parse(%q) = not ok, want match", tt.title)
			continue
		}
		if *got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.title, *got, tt.want)
		}
	}
}

func TestParse_CompoundPreferredOverBareSuffix(t *testing.T) {
	p := testTitleParser()

	// "finance" is itself a known domain, but the compound explains more
	// of the title: fund must belong to the domain, not the trainer.
	got, ok := p.Parse("alex-fund-finance-3-hard-1712345678")
	if !ok {
		t.Fatal("Parse() = not ok, want match")
	}
	if got.Domain != "fund_finance" || got.Trainer != "alex" {
		t.Errorf("got trainer=%q domain=%q, want alex/fund_finance", got.Trainer, got.Domain)
	}
}

func TestParse_RepairMisfire(t *testing.T) {
	p := testTitleParser()

	// A trainer whose name genuinely ends in a domain-fragment word is
	// indistinguishable from a mis-split compound; the repair borrows the
	// segment anyway. Lossy but accepted behavior.
	got, ok := p.Parse("mary-fund-finance-2-medium-1712345678")
	if !ok {
		t.Fatal("Parse() = not ok, want match")
	}
	if got.Trainer != "mary" || got.Domain != "fund_finance" {
		t.Errorf("got trainer=%q domain=%q, want mary/fund_finance", got.Trainer, got.Domain)
	}
}

func TestParse_FallbackGrammar(t *testing.T) {
	p := testTitleParser()

	tests := []struct {
		title          string
		wantTrainer    string
		wantDomain     string
		wantComplexity string
		wantTimestamp  string
	}{
		{"casey-finance-misc-cleanup-1712345678", "casey", "finance", "unknown", "1712345678"},
		{"casey-finance-hard-rework-1712345678999", "casey", "finance", "hard", "1712345678"},
		{"dee-hr_payroll-initial-task-1712345678", "dee", "hr_payroll", "unknown", "1712345678"},
		// The domain name itself carries a complexity keyword; the legacy
		// scan picks it up.
		{"dee-hr_experts-initial-task-1712345678", "dee", "hr_experts", "expert", "1712345678"},
	}

	for _, tt := range tests {
		got, ok := p.Parse(tt.title)
		if !ok {
			t.Errorf("Parse(%q) = not ok, want fallback match", tt.title)
			continue
		}
		if got.Trainer != tt.wantTrainer || got.Domain != tt.wantDomain {
			t.Errorf("Parse(%q) trainer/domain = %q/%q, want %q/%q",
				tt.title, got.Trainer, got.Domain, tt.wantTrainer, tt.wantDomain)
		}
		if got.Complexity != tt.wantComplexity {
			t.Errorf("Parse(%q) complexity = %q, want %q", tt.title, got.Complexity, tt.wantComplexity)
		}
		if got.Timestamp != tt.wantTimestamp {
			t.Errorf("Parse(%q) timestamp = %q, want %q", tt.title, got.Timestamp, tt.wantTimestamp)
		}
		if got.InterfaceNum != 0 {
			t.Errorf("Parse(%q) interface = %d, want 0 for fallback", tt.title, got.InterfaceNum)
		}
	}
}

func TestParse_NoMatch(t *testing.T) {
	p := testTitleParser()

	titles := []string{
		"",
		"Fix login bug",
		"jordan-finance-2-medium",           // no timestamp
		"jordan-finance-2-medium-12345",     // timestamp too short
		"update dependencies to latest",
		"1712345678",
	}
	for _, title := range titles {
		if _, ok := p.Parse(title); ok {
			t.Errorf("Parse(%q) = ok, want no match", title)
		}
	}
}

func TestNormalizeDomain(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Fund-Finance", "fund_finance"},
		{"HR-PAYROLL", "hr_payroll"},
		{"smart_home", "smart_home"},
	}
	for _, tt := range tests {
		if got := NormalizeDomain(tt.in); got != tt.want {
			t.Errorf("NormalizeDomain(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
