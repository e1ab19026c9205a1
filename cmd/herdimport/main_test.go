package main

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const herdSheet = "Série\tRG\tSexo\tNascimento\n" +
	"FELG\t931\tF\t17/09/2016\n" +
	"FELG\t932\tF\t31/02/2016\n" +
	"CJCJ\t179\tM\t01/02/2015\n"

// run executes the CLI with args against a private preference file.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), err
}

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PREFS_SQLITE_PATH", filepath.Join(dir, "prefs.db"))
	t.Setenv("LOG_LEVEL", "error")
	path := filepath.Join(dir, "rebanho.txt")
	if err := os.WriteFile(path, []byte(herdSheet), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// ============================================================================
// validate
// ============================================================================

func TestValidate_PrintsSummary(t *testing.T) {
	path := setup(t)

	out, err := run(t, "", "validate", path)
	if err != nil {
		t.Fatalf("validate error = %v", err)
	}
	for _, want := range []string{"entity:   animal", "3 total, 2 accepted, 1 rejected", "birth_date"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestValidate_Strict(t *testing.T) {
	path := setup(t)

	_, err := run(t, "", "validate", "--strict", path)
	if !errors.Is(err, errRowsRejected) {
		t.Fatalf("error = %v, want errRowsRejected", err)
	}
	if got := exitCode(err); got != exitRejected {
		t.Errorf("exitCode() = %d, want %d", got, exitRejected)
	}
}

func TestValidate_StdinAborted(t *testing.T) {
	setup(t)

	out, err := run(t, "FELG\nCJCJ\n", "validate", "--entity", "animal", "-")
	if !errors.Is(err, errAborted) {
		t.Fatalf("error = %v, want errAborted", err)
	}
	if !strings.Contains(out, "too_few_columns") {
		t.Errorf("output = %q, want the structural reason", out)
	}
	if got := exitCode(err); got != exitAborted {
		t.Errorf("exitCode() = %d, want %d", got, exitAborted)
	}
}

func TestValidate_BadFlags(t *testing.T) {
	path := setup(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown mode", []string{"validate", "--mode", "append", path}},
		{"unknown entity", []string{"validate", "--entity", "vaccination", path}},
		{"missing file", []string{"validate", filepath.Join(t.TempDir(), "none.txt")}},
		{"no argument", []string{"validate"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, "", tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

// ============================================================================
// mapping
// ============================================================================

func TestMapping_SetThenGet(t *testing.T) {
	setup(t)

	out, err := run(t, "", "mapping", "get", "animal")
	if err != nil {
		t.Fatalf("get error = %v", err)
	}
	if !strings.Contains(out, "no mapping saved") {
		t.Errorf("fresh get = %q", out)
	}

	doc := `{"mappingMode":"manual","fieldMapping":{"series":{"enabled":true,"source":"Codigo"}},"extraFields":[]}`
	if _, err := run(t, doc, "mapping", "set", "animal", "-"); err != nil {
		t.Fatalf("set error = %v", err)
	}

	out, err = run(t, "", "mapping", "get", "animal")
	if err != nil {
		t.Fatalf("get error = %v", err)
	}
	if !strings.Contains(out, `"mappingMode": "manual"`) || !strings.Contains(out, `"source": "Codigo"`) {
		t.Errorf("get after set = %s", out)
	}
}

func TestMapping_SetRejectsUnknownField(t *testing.T) {
	setup(t)
	doc := `{"mappingMode":"manual","fieldMapping":{"coat":{"enabled":true,"source":"A"}}}`
	if _, err := run(t, doc, "mapping", "set", "animal", "-"); err == nil {
		t.Error("expected an error for an unknown field")
	}
}

func TestCommit_RequiresDatabase(t *testing.T) {
	path := setup(t)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_URL", "")
	if _, err := run(t, "", "commit", path); err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("commit error = %v, want DATABASE_URL is required", err)
	}
}
