package game

import "math/rand"

const (
	GridWidth  = 21
	GridHeight = 21

	startLength = 3
)

// Snake is one controlled actor. Body is head-first; pending is the heading
// queued for the next tick.
type Snake struct {
	Seat    int       `json:"seat"`
	Body    []Point   `json:"body"`
	Heading Direction `json:"heading"`
	Score   int       `json:"score"`
	Alive   bool      `json:"alive"`

	pending Direction
}

// Steer queues a heading change for the next tick, latest-wins. A change
// that would reverse the snake into itself is ignored.
func (s *Snake) Steer(d Direction) bool {
	if !ValidateDirection(s.Heading, d) {
		return false
	}
	s.pending = d
	return true
}

func newSnake(seat int, head Point, heading Direction) *Snake {
	dx, dy := heading.delta()
	body := make([]Point, startLength)
	for i := range body {
		body[i] = Point{X: head.X - i*dx, Y: head.Y - i*dy}
	}
	return &Snake{Seat: seat, Body: body, Heading: heading, pending: heading, Alive: true}
}

func (s *Snake) clone() *Snake {
	c := *s
	c.Body = append([]Point(nil), s.Body...)
	return &c
}

// SharedState is the collectively-controlled variant: one snake, walls wrap,
// only the snake's own body ends the run.
type SharedState struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Snake  *Snake `json:"snake"`
	Food   Point  `json:"food"`
	Over   bool   `json:"over"`

	rng *rand.Rand
}

func NewShared(seed int64) *SharedState {
	s := &SharedState{
		Width:  GridWidth,
		Height: GridHeight,
		rng:    rand.New(rand.NewSource(seed)),
	}
	s.Snake = newSnake(0, Point{X: GridWidth / 2, Y: GridHeight / 2}, DirRight)
	s.Food = s.spawnFood()
	return s
}

// Advance moves the snake one cell. Deterministic: the only randomness is
// the seeded rng used for food spawns.
func (s *SharedState) Advance() []Event {
	if s.Over {
		return nil
	}
	sn := s.Snake
	if ValidateDirection(sn.Heading, sn.pending) {
		sn.Heading = sn.pending
	}
	dx, dy := sn.Heading.delta()
	head := sn.Body[0]
	next := Point{
		X: (head.X + dx + s.Width) % s.Width,
		Y: (head.Y + dy + s.Height) % s.Height,
	}

	grow := next == s.Food
	blocking := sn.Body
	if !grow {
		blocking = blocking[:len(blocking)-1] // tail vacates this tick
	}
	for _, p := range blocking {
		if p == next {
			sn.Alive = false
			s.Over = true
			return []Event{{Type: EvtGameOver, Seat: sn.Seat, Winner: -1}}
		}
	}

	sn.Body = append([]Point{next}, sn.Body...)
	if grow {
		sn.Score++
		s.Food = s.spawnFood()
		return []Event{{Type: EvtFoodEaten, Seat: sn.Seat}}
	}
	sn.Body = sn.Body[:len(sn.Body)-1]
	return nil
}

func (s *SharedState) spawnFood() Point {
	for {
		p := Point{X: s.rng.Intn(s.Width), Y: s.rng.Intn(s.Height)}
		if !containsPoint(s.Snake.Body, p) {
			return p
		}
	}
}

// Clone returns a deep copy safe to hand to another goroutine for
// serialization.
func (s *SharedState) Clone() *SharedState {
	c := *s
	c.Snake = s.Snake.clone()
	c.rng = nil
	return &c
}

// Arena is the competitive variant: one snake per seat, walls are terminal.
type Arena struct {
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Snakes []*Snake `json:"snakes"`
	Food   Point    `json:"food"`
	Over   bool     `json:"over"`

	rng *rand.Rand
}

func NewArena(players int, seed int64) *Arena {
	a := &Arena{
		Width:  GridWidth,
		Height: GridHeight,
		rng:    rand.New(rand.NewSource(seed)),
	}
	for i := 0; i < players; i++ {
		row := (i + 1) * GridHeight / (players + 1)
		a.Snakes = append(a.Snakes, newSnake(i, Point{X: GridWidth / 2, Y: row}, DirRight))
	}
	a.Food = a.spawnFood()
	return a
}

func (a *Arena) SnakeAt(seat int) *Snake {
	for _, s := range a.Snakes {
		if s.Seat == seat {
			return s
		}
	}
	return nil
}

// Advance moves every living snake one cell simultaneously. Deaths: leaving
// the arena, a head-on collision (both die), or running into any body.
func (a *Arena) Advance() []Event {
	if a.Over {
		return nil
	}

	next := make(map[int]Point)
	for _, s := range a.Snakes {
		if !s.Alive {
			continue
		}
		if ValidateDirection(s.Heading, s.pending) {
			s.Heading = s.pending
		}
		dx, dy := s.Heading.delta()
		head := s.Body[0]
		next[s.Seat] = Point{X: head.X + dx, Y: head.Y + dy}
	}

	var events []Event
	dead := make(map[int]bool)
	for seat, p := range next {
		if p.X < 0 || p.Y < 0 || p.X >= a.Width || p.Y >= a.Height {
			dead[seat] = true
			continue
		}
		for other, q := range next {
			if other != seat && q == p {
				dead[seat] = true // head-on, both seats hit this branch
			}
		}
		for _, s := range a.Snakes {
			if s.Alive && containsPoint(s.Body, p) {
				dead[seat] = true
			}
		}
	}

	for _, s := range a.Snakes {
		if !s.Alive {
			continue
		}
		if dead[s.Seat] {
			s.Alive = false
			events = append(events, Event{Type: EvtActorDied, Seat: s.Seat, Winner: -1})
			continue
		}
		p := next[s.Seat]
		s.Body = append([]Point{p}, s.Body...)
		if p == a.Food && a.eater(next, dead) == s.Seat {
			s.Score++
			a.Food = a.spawnFood()
			events = append(events, Event{Type: EvtFoodEaten, Seat: s.Seat})
		} else {
			s.Body = s.Body[:len(s.Body)-1]
		}
	}

	alive := -1
	count := 0
	for _, s := range a.Snakes {
		if s.Alive {
			alive = s.Seat
			count++
		}
	}
	if count <= 1 {
		a.Over = true
		if count == 1 {
			events = append(events, Event{Type: EvtGameOver, Winner: alive})
		} else {
			events = append(events, Event{Type: EvtGameOver, Winner: -1, Draw: true})
		}
	}
	return events
}

// eater picks the seat that consumes contested food: the lowest surviving
// seat index, so the outcome never depends on map iteration order.
func (a *Arena) eater(next map[int]Point, dead map[int]bool) int {
	eater := -1
	for seat, p := range next {
		if dead[seat] || p != a.Food {
			continue
		}
		if eater == -1 || seat < eater {
			eater = seat
		}
	}
	return eater
}

func (a *Arena) spawnFood() Point {
	for {
		p := Point{X: a.rng.Intn(a.Width), Y: a.rng.Intn(a.Height)}
		free := true
		for _, s := range a.Snakes {
			if containsPoint(s.Body, p) {
				free = false
				break
			}
		}
		if free {
			return p
		}
	}
}

func (a *Arena) Clone() *Arena {
	c := *a
	c.Snakes = make([]*Snake, len(a.Snakes))
	for i, s := range a.Snakes {
		c.Snakes[i] = s.clone()
	}
	c.rng = nil
	return &c
}

func containsPoint(body []Point, p Point) bool {
	for _, q := range body {
		if q == p {
			return true
		}
	}
	return false
}
