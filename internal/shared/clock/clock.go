package clock

import "time"

// Clock is the injectable time source. Services never call time.Now directly
// so duration math stays deterministic under test.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock.
type System struct{}

func (System) Now() time.Time {
	return time.Now()
}

// Fixed always reports the same instant.
type Fixed struct {
	Instant time.Time
}

func (f Fixed) Now() time.Time {
	return f.Instant
}

// Sequence replays instants in order, repeating the last one once exhausted.
type Sequence struct {
	Instants []time.Time
	next     int
}

func (s *Sequence) Now() time.Time {
	if len(s.Instants) == 0 {
		return time.Time{}
	}
	if s.next >= len(s.Instants) {
		return s.Instants[len(s.Instants)-1]
	}
	t := s.Instants[s.next]
	s.next++
	return t
}
