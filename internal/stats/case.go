package stats

// PreferID returns the ID if non-empty, otherwise falls back to the name.
// Groupings key on identity so two fabrics sharing a display name stay apart.
func PreferID(id, name string) string {
	if id != "" {
		return id
	}
	return name
}
