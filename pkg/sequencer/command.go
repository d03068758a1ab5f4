package sequencer

import "fmt"

// Op is a routing command tag.
type Op string

// Built-in command tags.
const (
	OpTaper    Op = "T"      // T length width: linear taper ending at width
	OpStraight Op = "S"      // S length: straight segment at current width
	OpCurve    Op = "C"      // C offset length: smooth lateral offset
	OpCenter   Op = "CENTER" // CENTER x y: re-anchor the coordinate origin
	OpState    Op = "STATE"  // STATE key value: set a named state variable
)

// arity maps each geometry/anchor op to its required operand count.
// OpState is special-cased (key + arbitrary value).
var arity = map[Op]int{
	OpTaper:    2,
	OpStraight: 1,
	OpCurve:    2,
	OpCenter:   2,
}

// Command is one step of a routing sequence. Geometry-emitting commands carry
// numeric operands in Args; OpState carries Key and Value instead.
type Command struct {
	Op    Op
	Args  []float64
	Key   string
	Value any
}

// T returns a taper command: a linear taper of the given length, ending at
// width. The new width becomes the running width for subsequent commands.
func T(length, width float64) Command {
	return Command{Op: OpTaper, Args: []float64{length, width}}
}

// S returns a straight segment of the given length at the running width.
func S(length float64) Command {
	return Command{Op: OpStraight, Args: []float64{length}}
}

// C returns a curve command: a smooth section producing a net lateral offset
// over the given length. The directrix is a smoothstep interpolation, not a
// circular arc, so width and curvature stay continuous at the joints.
func C(offset, length float64) Command {
	return Command{Op: OpCurve, Args: []float64{offset, length}}
}

// Center returns an anchor command declaring that the current position is
// (x, y): everything emitted so far is shifted accordingly. It emits no
// geometry. Typical use is aligning a taper's end to a grating's phase
// center before emitting the grating section.
func Center(x, y float64) Command {
	return Command{Op: OpCenter, Args: []float64{x, y}}
}

// State returns a state command setting a named variable for later commands.
// It emits no geometry and does not affect the built-in commands.
func State(key string, value any) Command {
	return Command{Op: OpState, Key: key, Value: value}
}

// String renders the command in the compact list notation used by device
// scripts, e.g. "[T 1 0.3]".
func (c Command) String() string {
	if c.Op == OpState {
		return fmt.Sprintf("[STATE %s %v]", c.Key, c.Value)
	}
	s := "[" + string(c.Op)
	for _, a := range c.Args {
		s += fmt.Sprintf(" %g", a)
	}
	return s + "]"
}
