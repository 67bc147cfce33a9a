package notifier

// Diff returns the items of current that are not structurally present in
// previous, section by section. The result carries every section of current
// (empty when nothing is new) and keeps document order within a section.
//
// Sections are small, so the quadratic membership scan is fine.
func Diff(current, previous Snapshot) Snapshot {
	fresh := make(Snapshot, len(current))
	for sec, items := range current {
		var newItems []Item
		for _, it := range items {
			if !contains(previous[sec], it) {
				newItems = append(newItems, it)
			}
		}
		fresh[sec] = newItems
	}
	return fresh
}

func contains(items []Item, it Item) bool {
	for _, have := range items {
		if have.Equal(it) {
			return true
		}
	}
	return false
}
