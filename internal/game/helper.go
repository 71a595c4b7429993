package game

// Mark is the content of a single board cell.
type Mark string

const (
	Empty        Mark = ""
	PlayerMark   Mark = "X"
	OpponentMark Mark = "O"
)

// Board boundaries
const (
	CellMin   = 0 // First index of the board
	CellMax   = 8 // Last index of the board
	CellCount = 9
	Center    = 4
)

// WinPatterns lists the rows, columns and diagonals in scan order.
var WinPatterns = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8}, // Rows
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8}, // Columns
	{0, 4, 8}, {2, 4, 6}, // Diagonals
}

// Board is the 3x3 grid flattened row by row.
type Board [CellCount]Mark

// InRange reports whether index addresses a cell.
func InRange(index int) bool {
	return index >= CellMin && index <= CellMax
}

// Winner returns the mark holding a complete pattern, or Empty.
func (b Board) Winner() Mark {
	for _, p := range WinPatterns {
		if b[p[0]] != Empty && b[p[0]] == b[p[1]] && b[p[1]] == b[p[2]] {
			return b[p[0]]
		}
	}
	return Empty
}

// IsFull reports whether no empty cell is left.
func (b Board) IsFull() bool {
	for _, cell := range b {
		if cell == Empty {
			return false
		}
	}
	return true
}

// EmptyCells returns the indices of empty cells in ascending order.
func (b Board) EmptyCells() []int {
	cells := make([]int, 0, CellCount)
	for i, cell := range b {
		if cell == Empty {
			cells = append(cells, i)
		}
	}
	return cells
}

// Count returns how many cells hold mark.
func (b Board) Count(mark Mark) int {
	n := 0
	for _, cell := range b {
		if cell == mark {
			n++
		}
	}
	return n
}

// Slice copies the board into a slice for wire messages.
func (b Board) Slice() []Mark {
	cells := make([]Mark, CellCount)
	copy(cells, b[:])
	return cells
}

// Other returns the opposing mark.
func (m Mark) Other() Mark {
	switch m {
	case PlayerMark:
		return OpponentMark
	case OpponentMark:
		return PlayerMark
	default:
		return Empty
	}
}
