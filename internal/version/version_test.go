package version

import (
	"testing"

	"github.com/fatih/color"
)

func withBuildInfo(t *testing.T, v, commit, date string) {
	t.Helper()
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	Version, GitCommit, BuildDate = v, commit, date
	t.Cleanup(func() {
		Version, GitCommit, BuildDate = origVersion, origCommit, origDate
	})
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name, version, commit, date, want string
	}{
		{"bare", "1.2.3", "", "", "1.2.3"},
		{"commit", "1.2.3", "abc123", "", "1.2.3 (abc123)"},
		{"full", "0.1.0-dev", "abc123", "2024-01-15", "0.1.0-dev (abc123, 2024-01-15)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withBuildInfo(t, tt.version, tt.commit, tt.date)
			if got := Describe(false); got != tt.want {
				t.Errorf("Describe() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestColored(t *testing.T) {
	orig := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = orig })

	withBuildInfo(t, "1.2.3-rc.1", "", "")
	if got := Colored(); got != "1.2.3-rc.1" {
		t.Errorf("Colored() without color = %q", got)
	}
	withBuildInfo(t, "nightly", "", "")
	if got := Colored(); got != "nightly" {
		t.Errorf("non-semver version should pass through, got %q", got)
	}
}
