package room

import "github.com/jopatk123/myweb-sub001/internal/game"

// ballotBox collects one tick window's worth of shared-mode votes.
// Latest-wins per session; lifetime is one window.
type ballotBox struct {
	votes map[string]game.Direction
}

func newBallotBox() ballotBox {
	return ballotBox{votes: make(map[string]game.Direction)}
}

func (b *ballotBox) cast(sessionID string, d game.Direction) {
	b.votes[sessionID] = d
}

func (b *ballotBox) discard(sessionID string) {
	delete(b.votes, sessionID)
}

func (b *ballotBox) empty() bool { return len(b.votes) == 0 }
func (b *ballotBox) count() int  { return len(b.votes) }

func (b *ballotBox) clear() {
	clear(b.votes)
}

// resolve tallies the window. Only votes from currently-online seats count.
// The direction with the most votes wins; a tie goes to the direction backed
// by the lowest seat index, never arrival time, so resolution is
// reproducible.
func (b *ballotBox) resolve(seats []*Seat) (tally map[game.Direction]int, winner game.Direction, ok bool) {
	tally = make(map[game.Direction]int)
	lowest := make(map[game.Direction]int)

	for _, s := range seats {
		if !s.Online {
			continue
		}
		d, voted := b.votes[s.SessionID]
		if !voted {
			continue
		}
		tally[d]++
		if cur, seen := lowest[d]; !seen || s.Index < cur {
			lowest[d] = s.Index
		}
	}

	best := 0
	for d, n := range tally {
		switch {
		case n > best:
			winner, best = d, n
		case n == best && lowest[d] < lowest[winner]:
			winner = d
		}
	}
	return tally, winner, best > 0
}
