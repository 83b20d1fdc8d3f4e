package book

import "sync/atomic"

// IDSource hands out unique order identifiers. The book itself only rejects
// duplicates; supplying globally unique IDs is the caller's job, and this is
// the simplest correct way to do it within one process. Safe for concurrent
// use.
type IDSource struct {
	last atomic.Uint64
}

// NewIDSource creates an IDSource that starts issuing IDs above start.
func NewIDSource(start uint64) *IDSource {
	s := &IDSource{}
	s.last.Store(start)
	return s
}

// Next returns the next unique identifier.
func (s *IDSource) Next() uint64 {
	return s.last.Add(1)
}
