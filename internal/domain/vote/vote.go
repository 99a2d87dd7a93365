package vote

import (
	"fmt"
	"time"
)

// Direction is the side a user votes for.
type Direction string

// Vote directions as they appear on the wire and in storage.
const (
	Up   Direction = "upvote"
	Down Direction = "downvote"
)

// ParseDirection validates a raw direction value.
func ParseDirection(s string) (Direction, error) {
	d := Direction(s)
	if !d.IsValid() {
		return "", fmt.Errorf("unsupported vote direction %q", s)
	}
	return d, nil
}

// IsValid reports whether d is Up or Down.
func (d Direction) IsValid() bool { return d == Up || d == Down }

// State is the per-(report, user) ledger state. None means no row.
type State string

// Ledger states.
const (
	None     State = ""
	Upvote   State = State(Up)
	Downvote State = State(Down)
)

// Kind describes how a request changed ledger state.
type Kind string

// Transition kinds.
const (
	Added   Kind = "ADDED"
	Updated Kind = "UPDATED"
	Removed Kind = "REMOVED"
)

// Delta is a counter change emitted by a transition.
type Delta struct {
	Up   int64
	Down int64
}

// Net returns the change in net score.
func (d Delta) Net() int64 { return d.Up - d.Down }

// IsZero reports whether the delta changes nothing.
func (d Delta) IsZero() bool { return d.Up == 0 && d.Down == 0 }

// Transition is the outcome of applying a requested direction to a state.
type Transition struct {
	From  State
	To    State
	Delta Delta
	Kind  Kind
}

// Next computes the transition for the requested direction.
// Same direction toggles the vote off, the opposite flips it, none adds it.
func Next(current State, requested Direction) (Transition, error) {
	if !requested.IsValid() {
		return Transition{}, fmt.Errorf("unsupported vote direction %q", requested)
	}

	t := Transition{From: current}
	switch current {
	case None:
		t.To = State(requested)
		t.Kind = Added
		t.Delta = plus(requested)
	case State(requested):
		t.To = None
		t.Kind = Removed
		t.Delta = minus(requested)
	case Upvote, Downvote:
		t.To = State(requested)
		t.Kind = Updated
		p, m := plus(requested), minus(Direction(current))
		t.Delta = Delta{Up: p.Up + m.Up, Down: p.Down + m.Down}
	default:
		return Transition{}, fmt.Errorf("unknown ledger state %q", current)
	}
	return t, nil
}

func plus(d Direction) Delta {
	if d == Up {
		return Delta{Up: 1}
	}
	return Delta{Down: 1}
}

func minus(d Direction) Delta {
	if d == Up {
		return Delta{Up: -1}
	}
	return Delta{Down: -1}
}

// Vote is a single ledger row.
type Vote struct {
	ReportID  string    `json:"reportId"`
	UserID    string    `json:"userId"`
	Direction Direction `json:"vote"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// State returns the ledger state the row represents.
func (v *Vote) State() State {
	if v == nil {
		return None
	}
	return State(v.Direction)
}

// Counters are the denormalized aggregates on a report.
type Counters struct {
	Upvotes   int64 `json:"upvotes"`
	Downvotes int64 `json:"downvotes"`
}

// Net returns upvotes minus downvotes.
func (c Counters) Net() int64 { return c.Upvotes - c.Downvotes }

// Apply returns the counters after adding d.
func (c Counters) Apply(d Delta) Counters {
	return Counters{Upvotes: c.Upvotes + d.Up, Downvotes: c.Downvotes + d.Down}
}

// Outcome is the result of a committed transition.
type Outcome struct {
	Transition Transition
	// Vote is the row after the transition, nil when it was removed.
	Vote *Vote
	// Previous is the row before the transition, nil when there was none.
	Previous *Vote
	Counters Counters
}

// Tally recomputes counters from a set of ledger rows.
func Tally(votes []Vote) Counters {
	var c Counters
	for _, v := range votes {
		switch v.Direction {
		case Up:
			c.Upvotes++
		case Down:
			c.Downvotes++
		}
	}
	return c
}
