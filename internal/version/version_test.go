package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestPopulated(t *testing.T) {
	if Version == "" {
		t.Error("Version should never be empty after init")
	}
	if Commit == "" {
		t.Error("Commit should never be empty after init")
	}
}

func TestString(t *testing.T) {
	got := String("tebotctl")

	for _, want := range []string{"tebotctl ", Version, "commit: " + Commit, runtime.Version(), runtime.GOOS + "/" + runtime.GOARCH} {
		if !strings.Contains(got, want) {
			t.Errorf("String() = %q, want it to contain %q", got, want)
		}
	}
}
