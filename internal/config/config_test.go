package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *c != *Default() {
		t.Fatalf("defaults differ:\n got %+v\nwant %+v", *c, *Default())
	}
}

func TestDefaultMatchesDefaultsMap(t *testing.T) {
	d := Default()
	if d.TestFraction != Defaults["test_fraction"] || d.DataPath != Defaults["data_path"] || d.NEstimators != Defaults["n_estimators"] {
		t.Fatalf("Default() and Defaults disagree")
	}
	if len(Keys()) != len(Defaults) {
		t.Fatalf("keys: %v", Keys())
	}
}

func TestSaveThenLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")
	c := Default()
	c.Seed = 7
	c.NEstimators = 25
	c.DatabaseURL = "postgres://localhost/engage"
	if err := Save(c, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if fi.Mode().Perm() != 0o600 {
		t.Fatalf("perm = %v, want 0600", fi.Mode().Perm())
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Seed != 7 || got.NEstimators != 25 || got.DatabaseURL != c.DatabaseURL {
		t.Fatalf("round trip lost values: %+v", got)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("seed: 5\ntest_fraction: 0.25\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ENGAGE_SEED", "99")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Seed != 99 {
		t.Fatalf("seed = %d, want env value 99", c.Seed)
	}
	if c.TestFraction != 0.25 {
		t.Fatalf("test_fraction = %v, want file value 0.25", c.TestFraction)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("seed: [unterminated\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for malformed yaml")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Global)
	}{
		{"fraction zero", func(c *Global) { c.TestFraction = 0 }},
		{"fraction one", func(c *Global) { c.TestFraction = 1 }},
		{"no trees", func(c *Global) { c.NEstimators = 0 }},
		{"negative depth", func(c *Global) { c.MaxDepth = -1 }},
		{"min split", func(c *Global) { c.MinSamplesSplit = 1 }},
	}
	if err := Default().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	for _, tc := range cases {
		c := Default()
		tc.mut(c)
		if err := c.Validate(); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}
