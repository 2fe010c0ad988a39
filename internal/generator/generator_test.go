package generator

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
)

var letters = []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M"}

func TestGenerateRatioWithinBand(t *testing.T) {
	g := NewWithSeed(42)
	for length := 10; length <= 100; length += 3 {
		maxN := length - (length+5)/6
		if maxN > 9 {
			maxN = 9
		}
		for n := 1; n <= maxN; n++ {
			seq, err := Generate(g, n, length, GridPositions(), nil)
			if err != nil {
				t.Fatalf("Generate(n=%d, length=%d) failed: %v", n, length, err)
			}
			if len(seq) != length {
				t.Fatalf("expected length %d, got %d", length, len(seq))
			}
			matches := CountMatches(seq, n)
			if !inBand(matches, length) {
				t.Fatalf("n=%d length=%d: %d matches outside [1/6, 1/4]", n, length, matches)
			}
		}
	}
}

func TestGenerateWithTwoSymbolAlphabet(t *testing.T) {
	g := NewWithSeed(7)
	seq, err := Generate(g, 2, 30, []string{"x", "y"}, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !inBand(CountMatches(seq, 2), 30) {
		t.Fatalf("ratio outside band for two-symbol alphabet: %v", seq)
	}
}

func TestBuildHonorsPlannedMatches(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	n := 2
	length := 40
	planned := planMatches(rnd, n, length, nil, targetMatches(n, length))
	seq := build(rnd, n, length, letters, planned)
	for i := n; i < length; i++ {
		_, selected := planned[i]
		same := seq[i] == seq[i-n]
		if selected && !same {
			t.Fatalf("position %d was planned as a match but differs", i)
		}
		if !selected && same {
			t.Fatalf("position %d was not planned but repeats %q", i, seq[i])
		}
	}
}

func TestPlanMatchesPrefersFreePositions(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	forbidden := map[int]struct{}{2: {}, 3: {}, 4: {}}
	planned := planMatches(rnd, 2, 12, forbidden, 5)
	if len(planned) != 5 {
		t.Fatalf("expected 5 planned matches, got %d", len(planned))
	}
	for i := range planned {
		if _, ok := forbidden[i]; ok {
			t.Fatalf("planned forbidden position %d while free positions remained", i)
		}
	}
}

func TestPlanMatchesFallsBackToConstrained(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	forbidden := map[int]struct{}{1: {}, 2: {}, 3: {}}
	planned := planMatches(rnd, 1, 5, forbidden, 3)
	if len(planned) != 3 {
		t.Fatalf("expected 3 planned matches, got %d", len(planned))
	}
	if _, ok := planned[4]; !ok {
		t.Fatalf("expected the only free position to be used first: %v", planned)
	}
}

func TestGenerateRejectsInvalidLag(t *testing.T) {
	g := NewWithSeed(1)
	for _, n := range []int{0, 10, 11} {
		if _, err := Generate(g, n, 10, letters, nil); !errors.Is(err, ErrInvalidLag) {
			t.Fatalf("n=%d: expected ErrInvalidLag, got %v", n, err)
		}
	}
}

func TestGenerateRejectsSmallAlphabet(t *testing.T) {
	g := NewWithSeed(1)
	for _, alphabet := range [][]string{nil, {"A"}, {"A", "A", "A"}} {
		if _, err := Generate(g, 2, 20, alphabet, nil); !errors.Is(err, ErrAlphabetTooSmall) {
			t.Fatalf("alphabet %v: expected ErrAlphabetTooSmall, got %v", alphabet, err)
		}
	}
}

func TestGenerateRebalancesUnreachableTarget(t *testing.T) {
	// ceil(5/5) = 1 match is 10% of 10 turns, below the band.
	g := NewWithSeed(3)
	seq, err := Generate(g, 5, 10, letters, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if got := CountMatches(seq, 5); got != 2 {
		t.Fatalf("expected rebalanced count 2, got %d", got)
	}
}

func TestGenerateRelaxedWhenBandEmpty(t *testing.T) {
	// No integer count lies in [7/6, 7/4], so the closest count is used.
	g := NewWithSeed(3)
	seq, err := Generate(g, 1, 7, letters, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(seq) != 7 {
		t.Fatalf("expected 7 symbols, got %d", len(seq))
	}
	if got := CountMatches(seq, 1); got != 1 {
		t.Fatalf("expected 1 match, got %d", got)
	}
}

func TestGenerateDeterministicWithSeed(t *testing.T) {
	a, err := Generate(NewWithSeed(99), 3, 50, letters, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	b, err := Generate(NewWithSeed(99), 3, 50, letters, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected identical sequences for identical seeds")
	}
}

func TestMatchPositions(t *testing.T) {
	got := MatchPositions([]int{1, 2, 1, 4, 1}, 2)
	want := map[int]struct{}{2: {}, 4: {}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected match positions: %v", got)
	}
	if len(MatchPositions([]int{1, 1}, 0)) != 0 {
		t.Fatalf("expected no positions for n=0")
	}
}

func TestTargetMatches(t *testing.T) {
	cases := map[[2]int]int{
		{2, 20}:  4,
		{1, 10}:  2,
		{3, 100}: 20,
		{5, 10}:  1,
	}
	for in, want := range cases {
		if got := targetMatches(in[0], in[1]); got != want {
			t.Fatalf("targetMatches(%d, %d) = %d, want %d", in[0], in[1], got, want)
		}
	}
}
