package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	Version, Commit = "v1.2.3", "abc1234"
	got := String()
	for _, want := range []string{"tidymark v1.2.3", "commit=abc1234", "go=" + GoVersion} {
		if !strings.Contains(got, want) {
			t.Errorf("String() = %q, want it to contain %q", got, want)
		}
	}
}
