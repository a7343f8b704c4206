package ai

import (
	"errors"

	"github.com/jopatk123/myweb-sub001/internal/game"
)

var ErrNoMove = errors.New("no move available")

// Suggester produces a candidate placement for an AI-controlled seat. The
// real heuristic scorer is an external collaborator; whatever implementation
// is plugged in here is treated as untrusted, and the coordinator re-checks
// every suggestion through the placement validator before applying it.
type Suggester interface {
	Suggest(b *game.Board, seat int) (x, y int, err error)
}

// Greedy is the bundled fallback: the free cell closest to the board center.
type Greedy struct{}

func (Greedy) Suggest(b *game.Board, seat int) (int, int, error) {
	center := b.Size / 2
	bestX, bestY, bestDist := -1, -1, 1<<31-1
	for y := 0; y < b.Size; y++ {
		for x := 0; x < b.Size; x++ {
			if b.Cell(x, y) != game.EmptyCell {
				continue
			}
			dist := abs(x-center) + abs(y-center)
			if dist < bestDist {
				bestX, bestY, bestDist = x, y, dist
			}
		}
	}
	if bestX < 0 {
		return 0, 0, ErrNoMove
	}
	return bestX, bestY, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
