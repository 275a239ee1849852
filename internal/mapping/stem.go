package mapping

import "strconv"

// Stem generates the ids of rules declared without one: stem1, stem2, ...
// Ids reserved up front are skipped.
type Stem struct {
	stem  string
	n     int
	taken map[string]bool
}

func NewStem(stem string) *Stem {
	return &Stem{stem: stem, taken: make(map[string]bool)}
}

// Reserve marks ids as taken. Empty ids are ignored.
func (s *Stem) Reserve(ids ...string) {
	for _, id := range ids {
		if id != "" {
			s.taken[id] = true
		}
	}
}

func (s *Stem) Next() string {
	for {
		s.n++

		id := s.stem + strconv.Itoa(s.n)
		if !s.taken[id] {
			s.taken[id] = true
			return id
		}
	}
}
