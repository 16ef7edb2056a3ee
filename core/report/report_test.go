package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emenda-labs/semdiff/core/changespec"
)

func change(symbol string, target changespec.Target, action changespec.Action, rt changespec.ReleaseType) changespec.ClassifiedChange {
	return changespec.ClassifiedChange{
		Symbol:      symbol,
		Name:        symbol,
		Target:      target,
		Action:      action,
		ReleaseType: rt,
		Explanation: string(target) + " " + symbol + " " + string(action),
	}
}

func TestCreate_Buckets(t *testing.T) {
	changes := []changespec.ClassifiedChange{
		change("a", changespec.TargetExport, changespec.ActionRemoved, changespec.ReleaseMajor),
		change("b", changespec.TargetExport, changespec.ActionAdded, changespec.ReleaseMinor),
		change("c", changespec.TargetExport, changespec.ActionModified, changespec.ReleasePatch),
		change("d", changespec.TargetExport, changespec.ActionModified, changespec.ReleaseNone),
	}

	r := Create(changes, "old.json", "new.json", WithTotals(10, 10))
	assert.Equal(t, changespec.ReleaseMajor, r.ReleaseType)
	assert.Len(t, r.Changes.Breaking, 1)
	assert.Len(t, r.Changes.NonBreaking, 1)
	assert.Len(t, r.Changes.Unchanged, 2)
	assert.True(t, r.HasBreakingChanges())

	assert.Equal(t, changespec.Stats{
		TotalSymbolsOld: 10,
		TotalSymbolsNew: 10,
		Added:           1,
		Removed:         1,
		Modified:        2,
		Unchanged:       7,
	}, r.Stats)
}

func TestCreate_Empty(t *testing.T) {
	r := Create(nil, "a", "b")
	assert.Equal(t, changespec.ReleaseNone, r.ReleaseType)
	assert.False(t, r.HasBreakingChanges())

	data, err := FormatJSON(r)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	buckets := decoded["changes"].(map[string]any)
	for _, key := range []string{"breaking", "nonBreaking", "unchanged"} {
		assert.Equal(t, []any{}, buckets[key], key)
	}
	assert.Equal(t, "none", decoded["releaseType"])
	assert.Contains(t, decoded, "stats")
}

func TestCreate_RenameAndKindChangeCountOnce(t *testing.T) {
	changes := []changespec.ClassifiedChange{
		change("getUserData", changespec.TargetExport, changespec.ActionModified, changespec.ReleaseMajor),
		change("Thing", changespec.TargetExport, changespec.ActionRemoved, changespec.ReleaseMajor),
		change("Thing", changespec.TargetExport, changespec.ActionAdded, changespec.ReleaseMinor),
	}
	r := Create(changes, "", "", WithTotals(2, 2))
	assert.Equal(t, 2, r.Stats.Modified)
	assert.Equal(t, 0, r.Stats.Added)
	assert.Equal(t, 0, r.Stats.Removed)
	assert.Equal(t, 0, r.Stats.Unchanged)
}

func TestCreate_Monotonic(t *testing.T) {
	s1 := []changespec.ClassifiedChange{change("a", changespec.TargetExport, changespec.ActionAdded, changespec.ReleaseMinor)}
	s2 := []changespec.ClassifiedChange{change("b", changespec.TargetExport, changespec.ActionModified, changespec.ReleasePatch)}

	union := append(append([]changespec.ClassifiedChange{}, s1...), s2...)
	want := changespec.MaxRelease(Create(s1, "", "").ReleaseType, Create(s2, "", "").ReleaseType)
	assert.Equal(t, want, Create(union, "", "").ReleaseType)
}

func TestFormatText(t *testing.T) {
	root := change("Config", changespec.TargetExport, changespec.ActionModified, changespec.ReleaseMajor)
	root.NestedChanges = []changespec.ClassifiedChange{
		change("version", changespec.TargetProperty, changespec.ActionAdded, changespec.ReleaseMajor),
		change("hidden", changespec.TargetProperty, changespec.ActionModified, changespec.ReleaseNone),
	}
	r := Create([]changespec.ClassifiedChange{root}, "old.json", "new.json", WithTotals(1200, 1201))

	out := FormatText(r, TextOptions{})
	assert.Contains(t, out, "Release type: major")
	assert.Contains(t, out, "old.json -> new.json")
	assert.Contains(t, out, "Breaking changes (1)")
	assert.Contains(t, out, "  - [major] Config: export Config modified")
	assert.Contains(t, out, "    - [major] version: property version added")
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "1,200 old, 1,201 new")
	assert.NotContains(t, out, "\x1b[")

	colored := FormatText(r, TextOptions{Color: true, Verbose: true})
	assert.Contains(t, colored, ansiRed+"[major]"+ansiReset)
	assert.Contains(t, colored, "hidden")
}

func TestFormatMarkdown(t *testing.T) {
	c := change("Config", changespec.TargetExport, changespec.ActionModified, changespec.ReleaseMajor)
	c.Old = &changespec.Fragment{Text: "interface { name: string }"}
	c.New = &changespec.Fragment{Text: "interface { name: string; version: number }"}
	r := Create([]changespec.ClassifiedChange{c}, "old.json", "new.json")

	out := FormatMarkdown(r)
	assert.Contains(t, out, "## API changes: `major`")
	assert.Contains(t, out, "### Breaking changes")
	assert.Contains(t, out, "- **major** `Config`")
	assert.Contains(t, out, "```diff")
	assert.Contains(t, out, "+version: number }")
	assert.NotContains(t, out, "### Non-breaking changes")
}

func TestSignatureDiff_SkipsUnmodified(t *testing.T) {
	c := change("a", changespec.TargetExport, changespec.ActionAdded, changespec.ReleaseMinor)
	c.New = &changespec.Fragment{Text: "() => void"}
	assert.Empty(t, signatureDiff(c, "", ""))
}
