package reconcile

// Diff collects the fields that differ between a desired and a registry view.
type Diff struct {
	changed []string
}

// Field records name as changed when want and have differ.
func Field[T comparable](d *Diff, name string, want, have T) {
	if want != have {
		d.changed = append(d.changed, name)
	}
}

// Check records name as changed when equal is false.
func (d *Diff) Check(name string, equal bool) {
	if !equal {
		d.changed = append(d.changed, name)
	}
}

// Changed returns the changed field names in comparison order.
func (d *Diff) Changed() []string {
	return d.changed
}

// Decision returns Update with the changed fields, or Noop when nothing differs.
func (d *Diff) Decision() Decision {
	if len(d.changed) == 0 {
		return Noop()
	}
	return Update(d.changed...)
}

// NameMatches reports whether have equals either accepted display name.
func NameMatches(have, primary, fallback string) bool {
	return have == primary || (fallback != "" && have == fallback)
}
