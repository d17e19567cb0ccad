// File: internal/action/command.go
package action

import (
	"math"
	"unicode/utf8"

	"github.com/storyhud/storyhud/internal/faults"
	"github.com/storyhud/storyhud/internal/oracle"
)

// Command is a closed set of action variants, each carrying only the fields
// relevant to its tool. Constructed fresh each iteration from the oracle's
// decision; never persisted.
type Command interface {
	isCommand()
}

// Click presses the left button at a normalized coordinate.
type Click struct{ X, Y float64 }

// Move hovers the cursor at a normalized coordinate.
type Move struct{ X, Y float64 }

// Drag presses at (X1,Y1) and releases at (X2,Y2), normalized.
type Drag struct{ X1, Y1, X2, Y2 float64 }

// Type injects literal text.
type Type struct{ Text string }

// Scroll turns the wheel by normalized deltas, vertical and horizontal.
type Scroll struct{ DX, DY float64 }

// Analyze performs no physical action; the oracle used the turn to think.
type Analyze struct{ Reasoning string }

// Done ends the run after the overlay is updated.
type Done struct{}

func (Click) isCommand()   {}
func (Move) isCommand()    {}
func (Drag) isCommand()    {}
func (Type) isCommand()    {}
func (Scroll) isCommand()  {}
func (Analyze) isCommand() {}
func (Done) isCommand()    {}

// FromDecision maps a decision onto its command variant. Missing numeric
// fields become NaN so Validate can reject them; an unrecognized tool maps
// to nil and is likewise rejected.
func FromDecision(d oracle.Decision) Command {
	nan := math.NaN()
	switch d.Tool {
	case "click":
		return Click{X: d.X.Or(nan), Y: d.Y.Or(nan)}
	case "move":
		return Move{X: d.X.Or(nan), Y: d.Y.Or(nan)}
	case "drag":
		return Drag{X1: d.X1.Or(nan), Y1: d.Y1.Or(nan), X2: d.X2.Or(nan), Y2: d.Y2.Or(nan)}
	case "type":
		return Type{Text: d.Text}
	case "scroll":
		return Scroll{DX: d.DX.Or(0), DY: d.DY.Or(0)}
	case "analyze":
		return Analyze{Reasoning: d.Reasoning}
	case "done":
		return Done{}
	default:
		return nil
	}
}

const (
	normMin       = 0.0
	normMax       = 1000.0
	maxScrollMag  = 10000.0
	maxTypeLength = 2000
)

// Validate applies the per-tool field checks. Bounds are inclusive: 0 and
// 1000 are both accepted, 1000.0001 and -0.0001 are not. A validation
// failure skips the iteration; it is never fatal.
func Validate(cmd Command) error {
	switch c := cmd.(type) {
	case Click:
		return validateNorm(c.X, c.Y)
	case Move:
		return validateNorm(c.X, c.Y)
	case Drag:
		return validateNorm(c.X1, c.Y1, c.X2, c.Y2)
	case Scroll:
		if math.Abs(c.DX) > maxScrollMag || math.Abs(c.DY) > maxScrollMag {
			return faults.New(faults.ClassValidation, "scroll delta out of range (|dx|=%v |dy|=%v)", math.Abs(c.DX), math.Abs(c.DY))
		}
		return nil
	case Type:
		if utf8.RuneCountInString(c.Text) > maxTypeLength {
			return faults.New(faults.ClassValidation, "type text exceeds %d characters", maxTypeLength)
		}
		return nil
	case Analyze, Done:
		return nil
	default:
		return faults.New(faults.ClassValidation, "unrecognized tool")
	}
}

func validateNorm(vals ...float64) error {
	for _, v := range vals {
		if math.IsNaN(v) {
			return faults.New(faults.ClassValidation, "required coordinate missing")
		}
		if v < normMin || v > normMax {
			return faults.New(faults.ClassValidation, "coordinate %v outside [%v, %v]", v, normMin, normMax)
		}
	}
	return nil
}
