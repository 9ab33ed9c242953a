package sync

import "testing"

func TestParseWeekPod(t *testing.T) {
	tests := []struct {
		name     string
		files    []string
		wantWeek int
		wantPod  string
		wantOK   bool
	}{
		{
			name:     "plain week folder",
			files:    []string{"week_12/bandreddy_pod/task_a/task.json"},
			wantWeek: 12,
			wantPod:  "bandreddy_pod",
			wantOK:   true,
		},
		{
			name:     "domain-qualified week folder",
			files:    []string{"week_13_hr_talent/mansoor_pod/task_b/result.json"},
			wantWeek: 13,
			wantPod:  "mansoor_pod",
			wantOK:   true,
		},
		{
			name: "first matching path wins",
			files: []string{
				"README.md",
				"week_14/alpha_pod/task/task.json",
				"week_15/beta_pod/task/task.json",
			},
			wantWeek: 14,
			wantPod:  "alpha_pod",
			wantOK:   true,
		},
		{
			name:   "no convention match",
			files:  []string{"src/main.py", "docs/notes.md"},
			wantOK: false,
		},
		{
			name:   "week folder not at path root",
			files:  []string{"archive/week_12/pod/task.json"},
			wantOK: false,
		},
		{
			name:   "empty",
			files:  nil,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			week, pod, ok := ParseWeekPod(tt.files)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if week != tt.wantWeek || pod != tt.wantPod {
				t.Errorf("got week=%d pod=%q, want week=%d pod=%q", week, pod, tt.wantWeek, tt.wantPod)
			}
		})
	}
}

func TestFindArtifact(t *testing.T) {
	files := []string{
		"week_12/alpha_pod/alex-finance-2-hard-1712345678/task.json",
		"week_12/alpha_pod/alex-finance-2-hard-1712345678/results.json",
		"week_12/alpha_pod/casey-finance-1-medium-1798765432/task.json",
	}

	path, ok := FindArtifact(files, "1712345678", "task.json")
	if !ok || path != files[0] {
		t.Errorf("FindArtifact(task.json) = %q, %v; want %q", path, ok, files[0])
	}

	// Either historical results basename is accepted.
	path, ok = FindArtifact(files, "1712345678", "result.json", "results.json")
	if !ok || path != files[1] {
		t.Errorf("FindArtifact(results) = %q, %v; want %q", path, ok, files[1])
	}

	// The timestamp token selects among coexisting task folders.
	path, ok = FindArtifact(files, "1798765432", "task.json")
	if !ok || path != files[2] {
		t.Errorf("FindArtifact(other folder) = %q, %v; want %q", path, ok, files[2])
	}

	if _, ok := FindArtifact(files, "1700000000", "task.json"); ok {
		t.Error("FindArtifact with unmatched token = ok, want miss")
	}
	if _, ok := FindArtifact(files, "", "task.json"); ok {
		t.Error("FindArtifact with empty token = ok, want miss")
	}
}
