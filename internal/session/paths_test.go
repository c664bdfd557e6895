package session

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestPathsAreSessionScoped(t *testing.T) {
	for _, p := range []string{Dir("alpha"), VaultDir("alpha"), LogDir("alpha"), LogPath("alpha")} {
		if !strings.Contains(p, filepath.Join("sessions", "alpha")) {
			t.Errorf("path %q not scoped to session alpha", p)
		}
	}
}

func TestConfigPathUnderBaseDir(t *testing.T) {
	if got, want := ConfigPath(), filepath.Join(BaseDir(), "config.toml"); got != want {
		t.Errorf("ConfigPath = %q, want %q", got, want)
	}
}
