package sync

import (
	"path"
	"regexp"
	"strconv"
	"strings"
)

// weekPodRE matches both historical path conventions:
//
//	week_12/bandreddy_pod/task_name/...
//	week_13_hr_talent/mansoor_pod/task_name/...
//
// The optional suffix after the week number accommodates domain-qualified
// week folders without a schema change.
var weekPodRE = regexp.MustCompile(`^week_([0-9]+)(?:_[\w-]+)?/([^/]+)/`)

// ParseWeekPod extracts (week number, pod name) from the first changed-file
// path that matches either convention. It does not aggregate across files.
func ParseWeekPod(filePaths []string) (weekNum int, podName string, ok bool) {
	for _, fp := range filePaths {
		m := weekPodRE.FindStringSubmatch(fp)
		if m == nil {
			continue
		}
		num, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return num, m[2], true
	}
	return 0, "", false
}

// FindArtifact locates a task-artifact file among a PR's changed files.
// Multiple task folders may coexist in one diff, so the PR's 10-digit
// creation timestamp token is required somewhere in the path as a
// disambiguator. The first path whose basename matches any of names wins.
func FindArtifact(filePaths []string, timestampToken string, names ...string) (string, bool) {
	if timestampToken == "" {
		return "", false
	}
	for _, fp := range filePaths {
		if !strings.Contains(fp, timestampToken) {
			continue
		}
		base := path.Base(fp)
		for _, name := range names {
			if base == name {
				return fp, true
			}
		}
	}
	return "", false
}
