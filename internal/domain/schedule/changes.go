package schedule

import "sort"

// NoteChange records a note that differs between two submissions.
type NoteChange struct {
	Date    string `json:"date"`
	OldNote string `json:"oldNote"`
	NewNote string `json:"newNote"`
}

// ChangeSet is the difference between a stored submission and a new one.
type ChangeSet struct {
	AddedSlots   []string     `json:"addedSlots"`
	RemovedSlots []string     `json:"removedSlots"`
	ChangedNotes []NoteChange `json:"changedNotes"`
}

// IsEmpty reports whether nothing changed.
func (c *ChangeSet) IsEmpty() bool {
	return len(c.AddedSlots) == 0 && len(c.RemovedSlots) == 0 && len(c.ChangedNotes) == 0
}

// DetectChanges compares a new submission with the previously stored one.
// With no previous submission it returns (nil, true). When nothing changed it
// returns (nil, false) and the caller must not announce the resubmission.
func DetectChanges(previous *Input, newSlots Slots, newNotes Notes) (*ChangeSet, bool) {
	if previous == nil {
		return nil, true
	}

	changes := &ChangeSet{}

	for _, key := range unionKeys(previous.Slots, newSlots) {
		was, is := previous.Slots[key], newSlots[key]
		switch {
		case !was && is:
			changes.AddedSlots = append(changes.AddedSlots, key)
		case was && !is:
			changes.RemovedSlots = append(changes.RemovedSlots, key)
		}
	}

	for _, date := range unionKeys(previous.Notes, newNotes) {
		oldNote, newNote := previous.Notes[date], newNotes[date]
		if oldNote != newNote {
			changes.ChangedNotes = append(changes.ChangedNotes, NoteChange{Date: date, OldNote: oldNote, NewNote: newNote})
		}
	}

	if changes.IsEmpty() {
		return nil, false
	}
	return changes, false
}

func unionKeys[M ~map[string]V, V any](a, b M) []string {
	seen := make(map[string]bool, len(a)+len(b))
	keys := make([]string, 0, len(a)+len(b))
	for _, m := range []M{a, b} {
		for k := range m {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}
