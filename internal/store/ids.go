package store

import "github.com/google/uuid"

// sequence is a monotonic counter. It is not safe for concurrent use; the
// MemoryStore mutex guards every sequence it owns.
type sequence struct {
	next int64
}

func newSequence(start int64) *sequence {
	return &sequence{next: start}
}

// take returns the current value and advances the counter by one.
func (s *sequence) take() int64 {
	v := s.next
	s.next++
	return v
}

func (s *sequence) peek() int64 {
	return s.next
}

func (s *sequence) reset(v int64) {
	s.next = v
}

// Counter starting values.
const (
	firstThingID    int64 = 0
	firstTemplateID int64 = 1
)

// newMessageID returns a random UUIDv4. Sends on independent paths never
// coordinate, so message IDs are not drawn from a sequence.
func newMessageID() string {
	return uuid.NewString()
}
