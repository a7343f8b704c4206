package game

import (
	"errors"
	"testing"
)

func containsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

func TestValidatePlacement(t *testing.T) {
	cases := []struct {
		name    string
		setup   func() *Board
		seat    int
		x, y    int
		wantErr error
	}{
		{
			name:  "legal opening move",
			setup: NewBoard,
			seat:  0, x: 7, y: 7,
		},
		{
			name:  "not your turn",
			setup: NewBoard,
			seat:  1, x: 7, y: 7,
			wantErr: ErrWrongTurn,
		},
		{
			name:  "out of bounds",
			setup: NewBoard,
			seat:  0, x: 15, y: 3,
			wantErr: ErrOutOfBounds,
		},
		{
			name:  "negative coordinate",
			setup: NewBoard,
			seat:  0, x: -1, y: 0,
			wantErr: ErrOutOfBounds,
		},
		{
			name: "cell occupied",
			setup: func() *Board {
				b := NewBoard()
				if _, err := b.Place(0, 7, 7); err != nil {
					t.Fatalf("setup place: %v", err)
				}
				return b
			},
			seat: 1, x: 7, y: 7,
			wantErr: ErrOccupied,
		},
		{
			name: "game finished",
			setup: func() *Board {
				b := NewBoard()
				b.Finished = true
				return b
			},
			seat: 0, x: 7, y: 7,
			wantErr: ErrGameFinished,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := tc.setup()
			err := ValidatePlacement(b, tc.seat, tc.x, tc.y)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidatePlacement_IsPure(t *testing.T) {
	b := NewBoard()
	before := b.Clone()

	if err := ValidatePlacement(b, 0, 7, 7); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if err := ValidatePlacement(b, 0, 7, 7); err != nil {
		t.Fatalf("second call: %v", err)
	}

	if b.Moves != before.Moves || b.CurrentTurn != before.CurrentTurn || b.Finished != before.Finished {
		t.Fatalf("validation mutated the board: %+v vs %+v", b, before)
	}
	for i := range b.Cells {
		if b.Cells[i] != before.Cells[i] {
			t.Fatalf("cell %d changed", i)
		}
	}
}

func TestPlace_AlternatesTurns(t *testing.T) {
	b := NewBoard()
	if _, err := b.Place(0, 7, 7); err != nil {
		t.Fatalf("seat 0: %v", err)
	}
	if b.CurrentTurn != 1 {
		t.Fatalf("want turn 1, got %d", b.CurrentTurn)
	}
	if _, err := b.Place(1, 8, 7); err != nil {
		t.Fatalf("seat 1: %v", err)
	}
	if b.CurrentTurn != 0 {
		t.Fatalf("want turn 0, got %d", b.CurrentTurn)
	}
	if _, err := b.Place(0, 7, 7); !errors.Is(err, ErrOccupied) {
		t.Fatalf("repeat placement: got %v, want ErrOccupied", err)
	}
}

func TestPlace_HorizontalWin(t *testing.T) {
	b := NewBoard()
	// Seat 0 builds a row at y=7, seat 1 a row at y=0 one move behind.
	for i := 0; i < 4; i++ {
		if _, err := b.Place(0, i, 7); err != nil {
			t.Fatalf("seat 0 move %d: %v", i, err)
		}
		if _, err := b.Place(1, i, 0); err != nil {
			t.Fatalf("seat 1 move %d: %v", i, err)
		}
	}

	events, err := b.Place(0, 4, 7)
	if err != nil {
		t.Fatalf("winning move: %v", err)
	}
	if !containsEvent(events, EvtGameOver) {
		t.Fatalf("expected GameOver, got %+v", events)
	}
	if !b.Finished || b.Winner != 0 {
		t.Fatalf("want finished with winner 0, got finished=%v winner=%d", b.Finished, b.Winner)
	}

	if _, err := b.Place(1, 5, 0); !errors.Is(err, ErrGameFinished) {
		t.Fatalf("post-win placement: got %v, want ErrGameFinished", err)
	}
}

func TestPlace_DiagonalWin_MiddleStoneCompletes(t *testing.T) {
	b := NewBoard()
	// Seat 0 fills a down-right diagonal leaving the middle stone for last,
	// so the win scan has to count in both directions.
	diag := [][2]int{{3, 3}, {4, 4}, {6, 6}, {7, 7}}
	filler := [][2]int{{0, 14}, {1, 14}, {2, 14}, {3, 14}}
	for i := range diag {
		if _, err := b.Place(0, diag[i][0], diag[i][1]); err != nil {
			t.Fatalf("seat 0 move %d: %v", i, err)
		}
		if _, err := b.Place(1, filler[i][0], filler[i][1]); err != nil {
			t.Fatalf("seat 1 move %d: %v", i, err)
		}
	}

	events, err := b.Place(0, 5, 5)
	if err != nil {
		t.Fatalf("winning move: %v", err)
	}
	if !containsEvent(events, EvtGameOver) || b.Winner != 0 {
		t.Fatalf("expected seat 0 diagonal win, got events=%+v winner=%d", events, b.Winner)
	}
}

func TestPlace_FullBoardIsDraw(t *testing.T) {
	b := NewBoard()
	// Hand-build a nearly-full board; only the final placement's line matters.
	for i := range b.Cells {
		b.Cells[i] = 1
	}
	b.Cells[0] = EmptyCell
	b.Moves = b.Size*b.Size - 1
	b.CurrentTurn = 0

	events, err := b.Place(0, 0, 0)
	if err != nil {
		t.Fatalf("final move: %v", err)
	}
	if !b.Finished || !b.Draw || b.Winner != -1 {
		t.Fatalf("want draw, got finished=%v draw=%v winner=%d", b.Finished, b.Draw, b.Winner)
	}
	if len(events) != 1 || !events[0].Draw {
		t.Fatalf("expected a draw GameOver event, got %+v", events)
	}
}
