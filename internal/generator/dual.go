package generator

// GridSize is the side length of the square position grid.
const GridSize = 3

// GridPositions returns the visual alphabet: every cell of the grid.
func GridPositions() []int {
	cells := make([]int, GridSize*GridSize)
	for i := range cells {
		cells[i] = i
	}
	return cells
}

// ComposeDual generates the audio sequence first, then a visual sequence
// that avoids designating matches where the audio stream already matches.
// Overlap can remain when the visual target cannot be met otherwise.
func ComposeDual(g *Generator, n, length int, audioAlphabet []string) ([]string, []int, error) {
	audio, err := Generate(g, n, length, audioAlphabet, nil)
	if err != nil {
		return nil, nil, err
	}
	visual, err := Generate(g, n, length, GridPositions(), MatchPositions(audio, n))
	if err != nil {
		return nil, nil, err
	}
	return audio, visual, nil
}
