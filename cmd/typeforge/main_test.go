package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/artpar/typeforge/bootstrap"
	"github.com/artpar/typeforge/config"
	"github.com/artpar/typeforge/core/schema"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out, "typeforge dev\n") || !strings.Contains(out, "commit:") {
		t.Errorf("version output = %q", out)
	}
}

func TestLint(t *testing.T) {
	dir := t.TempDir()
	user := writeFile(t, dir, "user.yaml", "name: users\nattributes:\n  email: String\ncallbacks:\n  before_save: \":downcase_email\"\n")
	post := writeFile(t, dir, "post.yaml", "name: post\nattributes:\n  title: String\n")

	out, err := execute(t, "lint", user, post, "-o", "table")
	if err != nil {
		t.Fatalf("lint failed: %v\n%s", err, out)
	}
	for _, want := range []string{"FILE", "STATUS", "User", "Post", "ok"} {
		if !strings.Contains(out, want) {
			t.Errorf("lint output missing %q:\n%s", want, out)
		}
	}
}

func TestLint_Failures(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "user.yaml", "name: user\nattributes:\n  email: String\n")

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"no attributes", "name: empty\n", "at least one attribute is required"},
		{"unknown binding", "name: tag\nattributes:\n  label: String\nvalidations:\n  validates_shoe_size_of: \":label\"\n", "validates_shoe_size_of"},
		{"name conflict", "name: users\nattributes:\n  login: String\n", "already declared in " + good},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := writeFile(t, dir, "bad.yaml", tt.content)

			out, err := execute(t, "lint", good, bad, "-o", "json")
			if err == nil || !strings.Contains(err.Error(), "1 of 2 descriptors invalid") {
				t.Fatalf("lint error = %v, want 1 of 2 invalid", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("lint output missing %q:\n%s", tt.want, out)
			}
		})
	}
}

func TestLint_BadOutputFormat(t *testing.T) {
	path := writeFile(t, t.TempDir(), "user.yaml", "name: user\nattributes:\n  email: String\n")

	if _, err := execute(t, "lint", path, "-o", "xml"); err == nil {
		t.Error("lint with -o xml should fail")
	}
}

func TestConfigCheck(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "typeforge.yaml", "database:\n  dsn: "+filepath.Join(dir, "tf.db")+"\nserver:\n  enabled: false\n")

	out, err := execute(t, "config", "check", "-c", cfgPath, "--check-database")
	if err != nil {
		t.Fatalf("config check failed: %v\n%s", err, out)
	}
	for _, want := range []string{"Config valid", "Diagnostics: disabled", "Database writable", "Configuration is valid."} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	bad := writeFile(t, dir, "bad.yaml", "logging:\n  level: chatty\n")
	if _, err := execute(t, "config", "check", "-c", bad); err == nil {
		t.Error("config check should reject an invalid level")
	}
	if _, err := execute(t, "config", "check", "-c", filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("config check should fail for a missing file")
	}
}

func TestInspectionCommands(t *testing.T) {
	dir := t.TempDir()
	dsn := filepath.Join(dir, "tf.db")
	cfgPath := writeFile(t, dir, "typeforge.yaml", "database:\n  dsn: "+dsn+"\n")

	// Seed the store through a first process.
	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	app, err := bootstrap.New(cfg, bootstrap.Options{Output: io.Discard})
	if err != nil {
		t.Fatalf("bootstrap.New failed: %v", err)
	}
	ctx := context.Background()
	d := schema.NewDescriptor("invoice", schema.Attributes{
		{Key: "number", Value: "String"},
		{Key: "total", Value: "Integer"},
	})
	d.SetSettings(schema.Settings{PublicAttributes: schema.NameList{"number"}, CSVAttributes: schema.NameList{"number", "total"}})
	if err := app.Runtime.SaveDescriptor(ctx, d); err != nil {
		t.Fatalf("SaveDescriptor failed: %v", err)
	}
	rec, _ := app.Runtime.NewAtom(ctx, "Invoice", map[string]any{"number": "INV-1", "total": 42})
	if err := app.Runtime.SaveAtom(ctx, rec); err != nil {
		t.Fatalf("SaveAtom failed: %v", err)
	}
	app.Close()

	out, err := execute(t, "types", "-c", cfgPath, "-o", "json")
	if err != nil {
		t.Fatalf("types failed: %v", err)
	}
	if !strings.Contains(out, `"Invoice"`) || !strings.Contains(out, d.ID) {
		t.Errorf("types output = %s", out)
	}

	out, err = execute(t, "describe", d.ID, "-c", cfgPath, "-o", "yaml", "--only", "name,atoms_count,state")
	if err != nil {
		t.Fatalf("describe failed: %v", err)
	}
	for _, want := range []string{"name: Invoice", "atoms_count: 1", "state: registered"} {
		if !strings.Contains(out, want) {
			t.Errorf("describe output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "primary_key") {
		t.Errorf("describe ignored --only:\n%s", out)
	}

	out, err = execute(t, "atoms", "Invoice", "-c", cfgPath, "-o", "table")
	if err != nil {
		t.Fatalf("atoms failed: %v", err)
	}
	if !strings.Contains(out, "INV-1") || strings.Contains(out, "TOTAL") {
		t.Errorf("atoms output = %s", out)
	}

	out, err = execute(t, "atoms", "Invoice", "-c", cfgPath, "--csv")
	if err != nil {
		t.Fatalf("atoms --csv failed: %v", err)
	}
	if out != "INV-1,42\n" {
		t.Errorf("atoms --csv = %q, want INV-1,42", out)
	}
	atomsCSV = false

	if _, err := execute(t, "atoms", "Ghost", "-c", cfgPath); err == nil {
		t.Error("atoms of an unknown type should fail")
	}
}
