package gomod

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `module example.com/app

go 1.22

require (
	github.com/acme/lib v1.4.2
	github.com/acme/other v0.3.0
)

replace github.com/acme/other => ../other
`

func writeGoMod(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte(content), 0o644))
	return dir
}

func TestFindModulePath(t *testing.T) {
	got, err := FindModulePath(writeGoMod(t, sample))
	require.NoError(t, err)
	assert.Equal(t, "example.com/app", got)

	_, err = FindModulePath(t.TempDir())
	assert.ErrorContains(t, err, "no go.mod found")

	_, err = FindModulePath(writeGoMod(t, "go 1.22\n"))
	assert.ErrorContains(t, err, "no module directive")
}

func TestFindRequirement(t *testing.T) {
	dir := writeGoMod(t, sample)

	tests := []struct {
		module  string
		want    Requirement
		wantErr error
	}{
		{module: "github.com/acme/lib", want: Requirement{Version: "v1.4.2"}},
		{module: "github.com/acme/other", want: Requirement{Version: "v0.3.0", Replaced: true}},
		{module: "github.com/acme/missing", wantErr: ErrModuleNotRequired},
	}
	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			got, err := FindRequirement(dir, tt.module)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	_, err := FindModulePath(writeGoMod(t, "module\n"))
	assert.ErrorContains(t, err, "failed to parse go.mod")
}
