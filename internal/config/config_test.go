package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	want := &Config{Server: "chat.example.net:9000", DefaultSession: "work"}
	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Server != want.Server || got.DefaultSession != want.DefaultSession {
		t.Errorf("got %+v, want %+v", got, want)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file mode = %o, want 0600", perm)
	}
}

func TestLoadDefaultsServer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("default_session = \"main\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server != DefaultServer {
		t.Errorf("Server = %q, want default %q", cfg.Server, DefaultServer)
	}
}

func TestURLs(t *testing.T) {
	cfg := &Config{Server: "10.0.2.2:8000"}
	if got, want := cfg.SignInURL(), "http://10.0.2.2:8000/chat/signin/"; got != want {
		t.Errorf("SignInURL = %q, want %q", got, want)
	}
	if got, want := cfg.SocketURL("tok"), "ws://10.0.2.2:8000/chat/?token=tok"; got != want {
		t.Errorf("SocketURL = %q, want %q", got, want)
	}
}
