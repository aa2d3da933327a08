package version

import (
	"strings"
	"testing"
)

func TestShortCommit(t *testing.T) {
	t.Parallel()
	if got := shortCommit("0123456789abcdef"); got != "0123456789ab" {
		t.Fatalf("shortCommit = %q", got)
	}
	if got := shortCommit("abc"); got != "abc" {
		t.Fatalf("shortCommit = %q", got)
	}
}

func TestResolveNeverEmpty(t *testing.T) {
	t.Parallel()
	info := Resolve()
	if info.Version == "" {
		t.Fatal("resolved version is empty")
	}
	if !strings.HasPrefix(info.GoVersion, "go") {
		t.Fatalf("go version = %q", info.GoVersion)
	}
	if !strings.HasPrefix(String(), info.Version) {
		t.Fatalf("String() = %q", String())
	}
}

func TestInfoString(t *testing.T) {
	t.Parallel()
	if got := (Info{Version: "v1.2.0"}).String(); got != "v1.2.0" {
		t.Fatalf("String() = %q", got)
	}
	if got := (Info{Version: "v1.2.0", Commit: "0123456789abcdef"}).String(); got != "v1.2.0 (0123456789ab)" {
		t.Fatalf("String() = %q", got)
	}
}
