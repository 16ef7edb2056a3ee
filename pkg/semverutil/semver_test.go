package semverutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emenda-labs/semdiff/core/changespec"
)

func TestNext(t *testing.T) {
	tests := []struct {
		current string
		rt      changespec.ReleaseType
		want    string
	}{
		{"v1.2.3", changespec.ReleaseMajor, "v2.0.0"},
		{"v1.2.3", changespec.ReleaseMinor, "v1.3.0"},
		{"v1.2.3", changespec.ReleasePatch, "v1.2.4"},
		{"v1.2.3", changespec.ReleaseNone, "v1.2.3"},
		{"v1.2", changespec.ReleaseNone, "v1.2.0"},
		{"v0.4.1", changespec.ReleaseMajor, "v0.5.0"},
		{"v0.4.1", changespec.ReleaseMinor, "v0.4.2"},
		{"v0.4.1", changespec.ReleasePatch, "v0.4.2"},
		{"v2.0.0-rc.1", changespec.ReleaseMajor, "v2.0.0"},
		{"v1.0.0+meta", changespec.ReleasePatch, "v1.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.current+"/"+string(tt.rt), func(t *testing.T) {
			got, err := Next(tt.current, tt.rt)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNext_Invalid(t *testing.T) {
	_, err := Next("1.2.3", changespec.ReleaseMajor)
	assert.ErrorIs(t, err, ErrInvalidVersion)

	_, err = Next("v1.2.3", changespec.ReleaseType("huge"))
	assert.ErrorContains(t, err, "unknown release type")
}

func TestVerifyBump(t *testing.T) {
	tests := []struct {
		from, to string
		rt       changespec.ReleaseType
		wantErr  error
	}{
		{"v1.2.3", "v2.0.0", changespec.ReleaseMajor, nil},
		{"v1.2.3", "v1.3.0", changespec.ReleaseMajor, ErrInsufficientBump},
		{"v1.2.3", "v1.3.0", changespec.ReleaseMinor, nil},
		{"v1.2.3", "v1.2.9", changespec.ReleaseMinor, ErrInsufficientBump},
		{"v1.2.3", "v1.2.4", changespec.ReleasePatch, nil},
		{"v1.2.3", "v1.2.3", changespec.ReleaseNone, nil},
		{"v1.2.3", "v3.0.0", changespec.ReleasePatch, nil},
		{"v0.3.0", "v0.4.0", changespec.ReleaseMajor, nil},
		{"v1.2.3", "latest", changespec.ReleaseNone, ErrInvalidVersion},
	}
	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			err := VerifyBump(tt.from, tt.to, tt.rt)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
