package trial

import (
	"math/rand/v2"
	"time"
)

// Selector picks the next trial without repeating the previous vowel.
//
// A Selector is not safe for concurrent use; the session controller owns one
// per drill and only touches it from its event loop.
type Selector struct {
	corpus   Corpus
	rng      *rand.Rand
	previous int
}

// NewSelector validates corpus and binds it to rng. A nil rng is seeded from the clock.
func NewSelector(corpus Corpus, rng *rand.Rand) (*Selector, error) {
	if err := corpus.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	copied := make(Corpus, len(corpus))
	copy(copied, corpus)
	return &Selector{corpus: copied, rng: rng, previous: -1}, nil
}

// Corpus returns the selector's corpus.
func (s *Selector) Corpus() Corpus {
	return s.corpus
}

// Next selects a vowel other than the previous one (unless the corpus has a
// single entry), then one of its words, both uniformly at random.
func (s *Selector) Next() Trial {
	index := nextIndex(s.rng, len(s.corpus), s.previous)
	s.previous = index

	vowel := s.corpus[index]
	word := vowel.Words[s.rng.IntN(len(vowel.Words))]
	return Trial{VowelID: vowel.ID, IPA: vowel.IPA, Word: word}
}

// nextIndex draws from [0,n) excluding previous by drawing from n-1 slots and
// shifting past the excluded one.
func nextIndex(rng *rand.Rand, n int, previous int) int {
	if n == 1 {
		return 0
	}
	if previous < 0 || previous >= n {
		return rng.IntN(n)
	}
	index := rng.IntN(n - 1)
	if index >= previous {
		index++
	}
	return index
}
