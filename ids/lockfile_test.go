package ids

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadLockAbsentFileIsEmpty(t *testing.T) {
	l, err := LoadLock(filepath.Join(t.TempDir(), "missing.lock"))
	if err != nil {
		t.Fatalf("LoadLock(): %s", err)
	}
	if l.Version != 1 {
		t.Fatalf("Version = %d, want 1", l.Version)
	}
	if len(l.Services) != 0 || len(l.Messages) != 0 || len(l.Methods) != 0 {
		t.Fatalf("expected empty lock, got %+v", l)
	}
}

func TestEscapeRoundTrip(t *testing.T) {
	cases := []string{"Accounts", "My.Service", "100%Done", "a.b%c.d"}
	for _, name := range cases {
		got := unescape(escape(name))
		if got != name {
			t.Fatalf("unescape(escape(%q)) = %q, want %q", name, got, name)
		}
	}
}

func TestEscapeOrderMatters(t *testing.T) {
	// '.' must be escaped after '%' on write, so a literal '%2E' already present in
	// a name is not confused with an escaped dot.
	name := "weird%2Ename"
	got := unescape(escape(name))
	if got != name {
		t.Fatalf("unescape(escape(%q)) = %q, want %q", name, got, name)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.lock")

	l := NewLock()
	l.Services["Accounts"] = 100
	l.Services["My.Service"] = 200
	l.Messages["GetBalanceRequest"] = 50
	l.Methods["Accounts.GetBalance"] = 16
	l.TombstoneServices[101] = true
	l.TombstoneServices[50] = true
	l.TombstoneMethods["Accounts"] = map[int]bool{17: true, 16: true}
	l.AliasServices["OldName"] = "Accounts"

	if err := l.Save(path); err != nil {
		t.Fatalf("Save(): %s", err)
	}

	loaded, err := LoadLock(path)
	if err != nil {
		t.Fatalf("LoadLock(): %s", err)
	}

	if loaded.Services["Accounts"] != 100 || loaded.Services["My.Service"] != 200 {
		t.Fatalf("services mismatch: %+v", loaded.Services)
	}
	if loaded.Messages["GetBalanceRequest"] != 50 {
		t.Fatalf("messages mismatch: %+v", loaded.Messages)
	}
	if loaded.Methods["Accounts.GetBalance"] != 16 {
		t.Fatalf("methods mismatch: %+v", loaded.Methods)
	}
	if !loaded.TombstoneServices[101] || !loaded.TombstoneServices[50] {
		t.Fatalf("tombstones.services mismatch: %+v", loaded.TombstoneServices)
	}
	if !loaded.TombstoneMethods["Accounts"][16] || !loaded.TombstoneMethods["Accounts"][17] {
		t.Fatalf("tombstones.methods mismatch: %+v", loaded.TombstoneMethods)
	}
	if loaded.AliasServices["OldName"] != "Accounts" {
		t.Fatalf("aliases.services mismatch: %+v", loaded.AliasServices)
	}
}

func TestUnknownKeysAreIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.lock")
	contents := "version = 1\nfuture.field.nobody.knows = 42\nservices.Accounts = 100\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %s", err)
	}

	l, err := LoadLock(path)
	if err != nil {
		t.Fatalf("LoadLock(): %s", err)
	}
	if l.Services["Accounts"] != 100 {
		t.Fatalf("services mismatch: %+v", l.Services)
	}
}
