// Package command holds the motion command vocabulary shared by the joystick
// and the rover, and the reduction of joystick samples to a command.
package command

import "fmt"

// Command is one discrete motion request. The zero value is None.
type Command int

const (
	None Command = iota
	Forward
	Backward
	Left
	Right
	ForwardLeft
	ForwardRight
	BackwardLeft
	BackwardRight
	Stop
)

var names = map[Command]string{
	Forward:       "forward",
	Backward:      "backward",
	Left:          "left",
	Right:         "right",
	ForwardLeft:   "forwardleft",
	ForwardRight:  "forwardright",
	BackwardLeft:  "backwardleft",
	BackwardRight: "backwardright",
	Stop:          "stop",
}

var byName = func() map[string]Command {
	m := make(map[string]Command, len(names))
	for c, n := range names {
		m[n] = c
	}
	return m
}()

// String returns the wire name (the request path segment). None has no wire name.
func (c Command) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	if c == None {
		return "none"
	}
	return fmt.Sprintf("command(%d)", int(c))
}

// Valid reports whether c can be transmitted.
func (c Command) Valid() bool {
	_, ok := names[c]
	return ok
}

// Parse maps a wire name to its command. Matching is exact and case-sensitive.
func Parse(name string) (Command, bool) {
	c, ok := byName[name]
	return c, ok
}

// All returns the transmittable commands in declaration order.
func All() []Command {
	return []Command{Forward, Backward, Left, Right, ForwardLeft, ForwardRight, BackwardLeft, BackwardRight, Stop}
}
