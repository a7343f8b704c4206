package game

import "errors"

var ErrWrongTurn = errors.New("not your turn")
var ErrOutOfBounds = errors.New("out of bounds")
var ErrOccupied = errors.New("cell occupied")
var ErrGameFinished = errors.New("game already finished")

type Mode string

const (
	ModeShared      Mode = "shared"
	ModeCompetitive Mode = "competitive"
	ModeTurnBased   Mode = "turn_based"
)

func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeShared, ModeCompetitive, ModeTurnBased:
		return Mode(s), true
	default:
		return "", false
	}
}

type Direction string

const (
	DirUp    Direction = "up"
	DirDown  Direction = "down"
	DirLeft  Direction = "left"
	DirRight Direction = "right"
)

func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case DirUp, DirDown, DirLeft, DirRight:
		return Direction(s), true
	default:
		return "", false
	}
}

func (d Direction) Opposite() Direction {
	switch d {
	case DirUp:
		return DirDown
	case DirDown:
		return DirUp
	case DirLeft:
		return DirRight
	default:
		return DirLeft
	}
}

func (d Direction) delta() (int, int) {
	switch d {
	case DirUp:
		return 0, -1
	case DirDown:
		return 0, 1
	case DirLeft:
		return -1, 0
	default:
		return 1, 0
	}
}

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type EventType string

const (
	EvtFoodEaten EventType = "FoodEaten"
	EvtActorDied EventType = "ActorDied"
	EvtGameOver  EventType = "GameOver"
)

// Event is emitted by a state transition. Winner is a seat index, -1 when
// there is none (cooperative run ended, or a draw).
type Event struct {
	Type   EventType
	Seat   int
	Winner int
	Draw   bool
}

// ValidateDirection reports whether an actor heading cur may turn to next.
// A 180° reversal is a standing game rule, not an error: callers drop it
// silently instead of surfacing a failure.
func ValidateDirection(cur, next Direction) bool {
	return next != cur.Opposite()
}
