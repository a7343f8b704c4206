package game

// Gomoku-style board: 15x15, five in a row wins.
const (
	BoardSize = 15
	winCount  = 5

	EmptyCell = -1
)

// Board is the turn-based variant. Cells is row-major; a cell holds the
// owning seat index or EmptyCell.
type Board struct {
	Size        int   `json:"size"`
	Cells       []int `json:"cells"`
	CurrentTurn int   `json:"current_turn"`
	Moves       int   `json:"moves"`
	Winner      int   `json:"winner"`
	Draw        bool  `json:"draw"`
	Finished    bool  `json:"finished"`
}

func NewBoard() *Board {
	cells := make([]int, BoardSize*BoardSize)
	for i := range cells {
		cells[i] = EmptyCell
	}
	return &Board{Size: BoardSize, Cells: cells, Winner: -1}
}

func (b *Board) Cell(x, y int) int {
	return b.Cells[y*b.Size+x]
}

// ValidatePlacement checks a proposed placement against the current state.
// Pure: no mutation, identical inputs give identical results.
func ValidatePlacement(b *Board, seat, x, y int) error {
	if b.Finished {
		return ErrGameFinished
	}
	if seat != b.CurrentTurn {
		return ErrWrongTurn
	}
	if x < 0 || y < 0 || x >= b.Size || y >= b.Size {
		return ErrOutOfBounds
	}
	if b.Cell(x, y) != EmptyCell {
		return ErrOccupied
	}
	return nil
}

// Place validates and applies one placement. The turn-based tick is
// event-driven: one accepted placement advances the game by one step.
func (b *Board) Place(seat, x, y int) ([]Event, error) {
	if err := ValidatePlacement(b, seat, x, y); err != nil {
		return nil, err
	}

	b.Cells[y*b.Size+x] = seat
	b.Moves++

	if b.winningLine(x, y, seat) {
		b.Finished = true
		b.Winner = seat
		return []Event{{Type: EvtGameOver, Seat: seat, Winner: seat}}, nil
	}
	if b.Moves == b.Size*b.Size {
		b.Finished = true
		b.Draw = true
		return []Event{{Type: EvtGameOver, Winner: -1, Draw: true}}, nil
	}

	b.CurrentTurn = (seat + 1) % 2
	return nil, nil
}

// winningLine scans the four line orientations through (x, y) for a run of
// winCount stones owned by seat.
func (b *Board) winningLine(x, y, seat int) bool {
	dirs := [4][2]int{{1, 0}, {0, 1}, {1, 1}, {1, -1}}
	for _, d := range dirs {
		run := 1
		for _, sign := range [2]int{1, -1} {
			for i := 1; i < winCount; i++ {
				nx, ny := x+sign*i*d[0], y+sign*i*d[1]
				if nx < 0 || ny < 0 || nx >= b.Size || ny >= b.Size || b.Cell(nx, ny) != seat {
					break
				}
				run++
			}
		}
		if run >= winCount {
			return true
		}
	}
	return false
}

func (b *Board) Clone() *Board {
	c := *b
	c.Cells = append([]int(nil), b.Cells...)
	return &c
}
