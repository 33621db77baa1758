package drive

import (
	"fmt"

	"github.com/cjeanneret/GoRover/internal/logic/command"
	"github.com/cjeanneret/GoRover/internal/logic/motion"
)

// Kinematics selects how Left and Right turns are produced.
type Kinematics int

const (
	// Skid turns slow the inner wheel to half speed.
	Skid Kinematics = iota
	// Pivot turns run the inner wheel backwards at half speed.
	Pivot
)

// combinedRatio is the inner wheel share for the diagonal commands.
const combinedRatio = 0.6

// ParseKinematics accepts "skid" (also the empty string) or "pivot".
func ParseKinematics(s string) (Kinematics, error) {
	switch s {
	case "", "skid":
		return Skid, nil
	case "pivot":
		return Pivot, nil
	default:
		return Skid, fmt.Errorf("unknown kinematics %q (want skid or pivot)", s)
	}
}

func (k Kinematics) String() string {
	if k == Pivot {
		return "pivot"
	}
	return "skid"
}

// Pair maps cmd to wheel speeds for speed magnitude s.
// ok is false for None and unknown commands.
func (k Kinematics) Pair(cmd command.Command, s float64) (motion.Pair, bool) {
	inner := combinedRatio * s

	switch cmd {
	case command.Forward:
		return motion.Pair{Left: s, Right: s}, true
	case command.Backward:
		return motion.Pair{Left: -s, Right: -s}, true
	case command.Left:
		if k == Pivot {
			return motion.Pair{Left: -s / 2, Right: s}, true
		}
		return motion.Pair{Left: s / 2, Right: s}, true
	case command.Right:
		if k == Pivot {
			return motion.Pair{Left: s, Right: -s / 2}, true
		}
		return motion.Pair{Left: s, Right: s / 2}, true
	case command.Stop:
		return motion.Pair{}, true
	case command.ForwardLeft:
		return motion.Pair{Left: inner, Right: s}, true
	case command.ForwardRight:
		return motion.Pair{Left: s, Right: inner}, true
	case command.BackwardLeft:
		return motion.Pair{Left: -inner, Right: -s}, true
	case command.BackwardRight:
		return motion.Pair{Left: -s, Right: -inner}, true
	default:
		return motion.Pair{}, false
	}
}
