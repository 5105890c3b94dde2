package editor

// History is an append-only list of submitted buffers, oldest first.
type History struct{ entries []string }

// Append records a submission.
func (h *History) Append(text string) { h.entries = append(h.entries, text) }

// Len returns the number of entries.
func (h *History) Len() int { return len(h.entries) }

// At returns entry i.
func (h *History) At(i int) string { return h.entries[i] }

// Entries returns a copy of all entries, oldest first.
func (h *History) Entries() []string { return append([]string(nil), h.entries...) }
