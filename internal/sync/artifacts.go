package sync

import (
	"encoding/json"
	"regexp"
	"strconv"

	"github.com/zulandar/traindash/internal/models"
)

// TrialResult is one task execution trial from a results artifact. A trial
// passes when its reward is exactly 1.0.
type TrialResult struct {
	Reward float64 `json:"reward"`
}

// TaskResults summarizes a PR's task execution artifact.
type TaskResults struct {
	TotalTrials int
	Passed      int
	Failed      int
}

// ParseResults decodes a results artifact. Historical artifacts come in
// three shapes, tried in order: a top-level trial array, {"trials": [...]},
// and {"results": [...]}.
func ParseResults(data []byte) (*TaskResults, bool) {
	var trials []TrialResult
	if err := json.Unmarshal(data, &trials); err != nil {
		var wrapped struct {
			Trials  []TrialResult `json:"trials"`
			Results []TrialResult `json:"results"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, false
		}
		trials = wrapped.Trials
		if len(trials) == 0 {
			trials = wrapped.Results
		}
	}
	if len(trials) == 0 {
		return nil, false
	}

	res := &TaskResults{TotalTrials: len(trials)}
	for _, tr := range trials {
		if tr.Reward == 1.0 {
			res.Passed++
		} else {
			res.Failed++
		}
	}
	return res, true
}

// ParseInstruction extracts the instruction text from a task.json artifact.
// Older artifacts used "description" or "prompt" for the same field.
func ParseInstruction(data []byte) (string, bool) {
	var task struct {
		Instruction string `json:"instruction"`
		Description string `json:"description"`
		Prompt      string `json:"prompt"`
	}
	if err := json.Unmarshal(data, &task); err != nil {
		return "", false
	}
	for _, text := range []string{task.Instruction, task.Description, task.Prompt} {
		if text != "" {
			return text, true
		}
	}
	return "", false
}

// Pass-rate bands for the actual-difficulty classification, expressed as
// fractions of total trials (10-12, 6-9 and 3-5 passes out of 16).
const (
	minTrialsForClassification = 3

	mediumBandLow  = 10.0 / 16.0
	mediumBandHigh = 12.0 / 16.0
	hardBandLow    = 6.0 / 16.0
	hardBandHigh   = 9.0 / 16.0
	expertBandLow  = 3.0 / 16.0
	expertBandHigh = 5.0 / 16.0
)

// ClassifyDifficulty derives the actual difficulty of a task from its trial
// outcomes. Unlike the title complexity, this reflects how the task really
// behaved. Pass rates outside every band are "unclassified"; fewer than
// three trials is not enough signal to classify at all.
func ClassifyDifficulty(passed, total int) string {
	if total < minTrialsForClassification {
		return models.DifficultyNotEnoughTrials
	}
	rate := float64(passed) / float64(total)
	switch {
	case rate >= mediumBandLow && rate <= mediumBandHigh:
		return models.ComplexityMedium
	case rate >= hardBandLow && rate <= hardBandHigh:
		return models.ComplexityHard
	case rate >= expertBandLow && rate <= expertBandHigh:
		return models.ComplexityExpert
	}
	return models.DifficultyUnclassified
}

// Bot result-table labels are matched literally; a format change in the
// bot's output leaves the fields unset rather than failing the sync.
var (
	botTotalRE  = regexp.MustCompile(`\*\*Total Trials\*\*[:|\s]*([0-9]+)`)
	botPassedRE = regexp.MustCompile(`\*\*Passed\*\*[:|\s]*([0-9]+)`)
	botFailedRE = regexp.MustCompile(`\*\*Failed\*\*[:|\s]*([0-9]+)`)
)

// ParseBotResults extracts trial counts from a bot-authored results comment
// containing the fixed-format table (**Total Trials**, **Passed**,
// **Failed**, **Success Rate**). Used as a fallback when no results
// artifact is readable.
func ParseBotResults(body string) (*TaskResults, bool) {
	total, okTotal := matchInt(botTotalRE, body)
	passed, okPassed := matchInt(botPassedRE, body)
	if !okTotal || !okPassed {
		return nil, false
	}
	failed, okFailed := matchInt(botFailedRE, body)
	if !okFailed {
		failed = total - passed
	}
	return &TaskResults{TotalTrials: total, Passed: passed, Failed: failed}, true
}

func matchInt(re *regexp.Regexp, s string) (int, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
