package archive

// Cell is one populated position on a reconstructed board.
type Cell[T any] struct {
	Row   int
	Index int
	Value T
}

// ReconstructGrid maps a flat, row-major clue sequence onto categories.
//
// The page lists clue cells row by row, so the clue for category i in row j
// sits at flat index i + j*categories. Positions past the end of the
// sequence are left out, which gives the affected categories fewer than
// rows cells. Nothing about a clue's content is used to place it.
func ReconstructGrid[T any](categories, rows int, clues []T) [][]Cell[T] {
	if categories <= 0 {
		return nil
	}

	grid := make([][]Cell[T], categories)
	for i := 0; i < categories; i++ {
		column := make([]Cell[T], 0, rows)
		for j := 0; j < rows; j++ {
			idx := i + j*categories
			if idx >= len(clues) {
				break
			}
			column = append(column, Cell[T]{Row: j, Index: idx, Value: clues[idx]})
		}
		grid[i] = column
	}

	return grid
}
