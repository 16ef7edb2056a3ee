package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, sub *cobra.Command, args ...string) (*GlobalOptions, error) {
	t.Helper()
	var global GlobalOptions
	root := NewRootCmd("test", &global)
	root.AddCommand(sub)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	return &global, root.ExecuteContext(context.Background())
}

func snapshotFiles(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	old := filepath.Join(dir, "old.json")
	new := filepath.Join(dir, "new.json")
	require.NoError(t, os.WriteFile(old, []byte(`{"nodes":{}}`), 0o644))
	require.NoError(t, os.WriteFile(new, []byte(`{"nodes":{}}`), 0o644))
	return old, new
}

func TestCompareCmd_PassesOptions(t *testing.T) {
	old, new := snapshotFiles(t)

	var got CompareOptions
	run := func(ctx context.Context, opts CompareOptions) error {
		got = opts
		return nil
	}

	global, err := execute(t, NewCompareCmd(run), "compare", old, new,
		"--policy", "read-only", "--format", "json", "--fail-on", "minor",
		"--current-version", "v1.2.3", "--show-unchanged", "-vv")
	require.NoError(t, err)

	assert.Equal(t, old, got.Old)
	assert.Equal(t, new, got.New)
	assert.Equal(t, "read-only", got.Policy)
	assert.Equal(t, "json", got.Format)
	assert.Equal(t, "minor", got.FailOn)
	assert.Equal(t, "v1.2.3", got.CurrentVersion)
	assert.True(t, got.ShowUnchanged)
	assert.Equal(t, 2, global.Verbosity)
}

func TestCompareCmd_Validation(t *testing.T) {
	old, new := snapshotFiles(t)
	missing := filepath.Join(t.TempDir(), "missing.json")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"one arg", []string{old}, "accepts 2 arg(s)"},
		{"missing file", []string{old, missing}, "snapshot does not exist"},
		{"directory", []string{old, t.TempDir()}, "snapshot is a directory"},
		{"two stdin", []string{"-", "-"}, "standard input"},
		{"bad format", []string{old, new, "--format", "xml"}, "--format"},
		{"bad color", []string{old, new, "--color", "sometimes"}, "--color"},
		{"bad fail-on", []string{old, new, "--fail-on", "none"}, "--fail-on"},
		{"bad version", []string{old, new, "--current-version", "1.2.3"}, "--current-version"},
		{"policy and file", []string{old, new, "--policy", "default", "--policy-file", "p.yaml"}, "none of the others can be"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			run := func(ctx context.Context, opts CompareOptions) error {
				called = true
				return nil
			}
			_, err := execute(t, NewCompareCmd(run), append([]string{"compare"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.False(t, called)
		})
	}
}

func TestGoCmd_Validation(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "go.mod")
	require.NoError(t, os.WriteFile(file, []byte("module x\n"), 0o644))

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"remote with from", []string{"--module", "example.com/m", "--from", "v1.0.0", "--to", "v1.1.0"}, ""},
		{"remote with repo", []string{"--module", "example.com/m", "--to", "v1.1.0", "--repo", dir}, ""},
		{"local dirs", []string{"--old-dir", dir, "--new-dir", dir}, ""},
		{"no module", []string{"--to", "v1.1.0", "--from", "v1.0.0"}, "--module is required"},
		{"no to", []string{"--module", "example.com/m", "--from", "v1.0.0"}, "--to is required"},
		{"bad to", []string{"--module", "example.com/m", "--from", "v1.0.0", "--to", "1.1.0"}, "must start with 'v'"},
		{"bad from", []string{"--module", "example.com/m", "--from", "1.0.0", "--to", "v1.1.0"}, "must start with 'v'"},
		{"no old version", []string{"--module", "example.com/m", "--to", "v1.1.0"}, "one of --from or --repo"},
		{"repo is file", []string{"--module", "example.com/m", "--to", "v1.1.0", "--repo", file}, "not a directory"},
		{"repo missing", []string{"--module", "example.com/m", "--to", "v1.1.0", "--repo", filepath.Join(dir, "nope")}, "does not exist"},
		{"one dir", []string{"--old-dir", dir}, "must all be set"},
		{"only new dir", []string{"--new-dir", dir}, "must all be set"},
		{"missing dir with its pair", []string{"--old-dir", filepath.Join(dir, "nope")}, "must all be set"},
		{"dir and module", []string{"--old-dir", dir, "--new-dir", dir, "--module", "example.com/m"}, "none of the others can be"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *GoOptions
			run := func(ctx context.Context, opts GoOptions) error {
				got = &opts
				return nil
			}
			_, err := execute(t, NewGoCmd(run), append([]string{"go"}, tt.args...)...)
			if tt.wantErr == "" {
				require.NoError(t, err)
				require.NotNil(t, got)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Nil(t, got)
		})
	}
}

func TestGoOptions_Remote(t *testing.T) {
	assert.True(t, GoOptions{Module: "m"}.Remote())
	assert.False(t, GoOptions{OldDir: "a", NewDir: "b"}.Remote())
}

func TestPoliciesCmd(t *testing.T) {
	var got PoliciesOptions
	run := func(ctx context.Context, opts PoliciesOptions) error {
		got = opts
		return nil
	}

	_, err := execute(t, NewPoliciesCmd(run), "policies", "read-only", "--format", "toml")
	require.NoError(t, err)
	assert.Equal(t, PoliciesOptions{Name: "read-only", Format: "toml"}, got)

	_, err = execute(t, NewPoliciesCmd(run), "policies")
	require.NoError(t, err)
	assert.Equal(t, PoliciesOptions{Format: "text"}, got)

	_, err = execute(t, NewPoliciesCmd(run), "policies", "--format", "csv")
	assert.ErrorContains(t, err, "--format")

	_, err = execute(t, NewPoliciesCmd(run), "policies", "a", "b")
	assert.Error(t, err)
}

func TestRootCmd_GlobalFlags(t *testing.T) {
	run := func(ctx context.Context, opts PoliciesOptions) error { return nil }

	global, err := execute(t, NewPoliciesCmd(run), "--config", "ci.yaml", "-q", "policies")
	require.NoError(t, err)
	assert.Equal(t, "ci.yaml", global.ConfigFile)
	assert.True(t, global.Quiet)
}
