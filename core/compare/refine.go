package compare

import "github.com/emenda-labs/semdiff/core/changespec"

// refineOptionality relabels parameter and property changes whose only
// difference is the optional marker. Index signatures and mapped modifiers are
// never refined.
func refineOptionality(list []*changespec.ChangeDescriptor) {
	for _, root := range list {
		root.Walk(func(d *changespec.ChangeDescriptor) {
			if !optionalityOnly(d) {
				return
			}
			d.Aspect = changespec.AspectOptionality
			d.Impact, d.Tags = optionalityChange(d.New.Optional)
		})
	}
}

func optionalityOnly(d *changespec.ChangeDescriptor) bool {
	if d.Target != changespec.TargetParameter && d.Target != changespec.TargetProperty {
		return false
	}
	if d.Action != changespec.ActionModified || d.Aspect != changespec.AspectType {
		return false
	}
	if d.Old == nil || d.New == nil {
		return false
	}
	return d.Old.Optional != d.New.Optional && d.Old.Text == d.New.Text
}
