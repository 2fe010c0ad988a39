// Package generator builds n-back stimulus sequences.
package generator

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Sentinel errors for sequence generation.
var (
	ErrInvalidLag       = errors.New("generator: n must be >= 1 and less than the sequence length")
	ErrAlphabetTooSmall = errors.New("generator: alphabet needs at least 2 distinct symbols")
)

// maxAttempts bounds the generate-and-test loop before rebalancing.
const maxAttempts = 32

// Generator produces randomized n-back sequences. It is safe for
// concurrent use; calls are serialized on the underlying source.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed returns a deterministic Generator.
func NewWithSeed(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Generate builds a sequence of length symbols drawn from alphabet in which
// roughly a fifth of the positions repeat the symbol n steps back. Positions
// in forbidden are only designated matches when the remaining positions
// cannot supply the target count.
func Generate[T comparable](g *Generator, n, length int, alphabet []T, forbidden map[int]struct{}) ([]T, error) {
	if n < 1 || n >= length {
		return nil, fmt.Errorf("%w (n=%d, length=%d)", ErrInvalidLag, n, length)
	}
	if distinct(alphabet) < 2 {
		return nil, fmt.Errorf("%w (got %d)", ErrAlphabetTooSmall, distinct(alphabet))
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	target := targetMatches(n, length)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		matches := planMatches(g.rnd, n, length, forbidden, target)
		seq := build(g.rnd, n, length, alphabet, matches)
		if inBand(CountMatches(seq, n), length) {
			return seq, nil
		}
	}

	// The realized count equals the planned count, so nudging the plan into
	// the band is enough whenever the band is reachable at all.
	matches := planMatches(g.rnd, n, length, forbidden, rebalance(target, n, length))
	return build(g.rnd, n, length, alphabet, matches), nil
}

// MatchPositions returns the indices i >= n where seq[i] == seq[i-n].
func MatchPositions[T comparable](seq []T, n int) map[int]struct{} {
	out := map[int]struct{}{}
	if n < 1 {
		return out
	}
	for i := n; i < len(seq); i++ {
		if seq[i] == seq[i-n] {
			out[i] = struct{}{}
		}
	}
	return out
}

// CountMatches returns the number of lag-n repetitions in seq.
func CountMatches[T comparable](seq []T, n int) int {
	if n < 1 {
		return 0
	}
	count := 0
	for i := n; i < len(seq); i++ {
		if seq[i] == seq[i-n] {
			count++
		}
	}
	return count
}

// targetMatches is ceil((length-n) / 5).
func targetMatches(n, length int) int {
	return (length - n + 4) / 5
}

// inBand reports whether matches/length lies in [1/6, 1/4].
func inBand(matches, length int) bool {
	return 6*matches >= length && 4*matches <= length
}

func rebalance(target, n, length int) int {
	lo := (length + 5) / 6
	hi := length / 4
	k := target
	if k < lo {
		k = lo
	}
	if k > hi {
		k = hi
	}
	if k > length-n {
		k = length - n
	}
	if k < 0 {
		k = 0
	}
	return k
}

func planMatches(rnd *rand.Rand, n, length int, forbidden map[int]struct{}, count int) map[int]struct{} {
	free := make([]int, 0, length-n)
	constrained := make([]int, 0, len(forbidden))
	for i := n; i < length; i++ {
		if _, ok := forbidden[i]; ok {
			constrained = append(constrained, i)
			continue
		}
		free = append(free, i)
	}
	rnd.Shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })
	rnd.Shuffle(len(constrained), func(i, j int) { constrained[i], constrained[j] = constrained[j], constrained[i] })

	matches := make(map[int]struct{}, count)
	for _, i := range free {
		if len(matches) >= count {
			break
		}
		matches[i] = struct{}{}
	}
	for _, i := range constrained {
		if len(matches) >= count {
			break
		}
		matches[i] = struct{}{}
	}
	return matches
}

func build[T comparable](rnd *rand.Rand, n, length int, alphabet []T, matches map[int]struct{}) []T {
	seq := make([]T, length)
	for i := 0; i < length; i++ {
		pick := alphabet[rnd.Intn(len(alphabet))]
		if i < n {
			seq[i] = pick
			continue
		}
		prev := seq[i-n]
		if _, ok := matches[i]; ok {
			seq[i] = prev
			continue
		}
		for pick == prev {
			pick = alphabet[rnd.Intn(len(alphabet))]
		}
		seq[i] = pick
	}
	return seq
}

func distinct[T comparable](alphabet []T) int {
	seen := make(map[T]struct{}, len(alphabet))
	for _, s := range alphabet {
		seen[s] = struct{}{}
	}
	return len(seen)
}
