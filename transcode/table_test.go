package transcode

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadAndLookup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.json")
	if err := os.WriteFile(path, []byte(`{"sub001": "anon9f2", "sub002": "anon110"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	anon, err := table.Lookup("sub001")
	if err != nil {
		t.Fatal(err)
	}
	if anon != "anon9f2" {
		t.Fatalf("want anon9f2, got %q", anon)
	}

	if _, err := table.Lookup("sub999"); err == nil {
		t.Fatal("lookup of an absent subject ID should fail")
	} else if !strings.Contains(err.Error(), "sub999") {
		t.Fatalf("error should name the missing subject, got %v", err)
	}
}

func TestNilTableIsIdentity(t *testing.T) {
	var table Table

	anon, err := table.Lookup("sub001")
	if err != nil {
		t.Fatal(err)
	}
	if anon != "sub001" {
		t.Fatalf("nil table should pass the raw ID through, got %q", anon)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("loading a missing table should fail")
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte(`{"sub001": `), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Fatal("loading malformed JSON should fail")
	}
}
