package repobrowser

// Selection is an insertion-ordered set of file paths.
type Selection struct {
	order []string
	index map[string]struct{}
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{index: make(map[string]struct{})}
}

// Toggle adds path if absent and removes it if present. It returns whether
// path is selected afterwards.
func (s *Selection) Toggle(path string) bool {
	if _, ok := s.index[path]; ok {
		delete(s.index, path)
		for i, p := range s.order {
			if p == path {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		return false
	}
	s.index[path] = struct{}{}
	s.order = append(s.order, path)
	return true
}

// Has reports whether path is selected.
func (s *Selection) Has(path string) bool {
	_, ok := s.index[path]
	return ok
}

// Paths returns the selected paths in the order they were added.
func (s *Selection) Paths() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of selected paths.
func (s *Selection) Len() int { return len(s.order) }
