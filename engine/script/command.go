package script

// Command is one node of a unit script. The set of variants is closed:
// Move, Attack, Wait and Repeat are the only implementations.
type Command interface {
	command()
	// Kind returns the block type name used on the wire.
	Kind() BlockType
}

// BlockType names a command variant on the wire and in the editor palette
type BlockType string

const (
	TypeMove   BlockType = "MOVE"
	TypeAttack BlockType = "ATTACK"
	TypeWait   BlockType = "WAIT"
	TypeRepeat BlockType = "REPEAT"
)

// Policy picks an attack target at execution time
type Policy string

const (
	PolicyClosest Policy = "closest"
	PolicyWeakest Policy = "weakest"
	// PolicyBase is a coarse fallback: it picks the first enemy in iteration
	// order. There is no structural base entity to aim at.
	PolicyBase Policy = "base"
)

// Valid reports whether p is one of the known policies.
func (p Policy) Valid() bool {
	switch p {
	case PolicyClosest, PolicyWeakest, PolicyBase:
		return true
	}
	return false
}

// Move walks to Target, written as "x,y" in world X/Z coordinates.
type Move struct {
	Target string
}

// Attack hits one enemy chosen by Policy.
type Attack struct {
	Policy Policy
}

// Wait suspends the script for Duration seconds.
type Wait struct {
	Duration string
}

// Repeat runs Children Times times in order.
type Repeat struct {
	Times    string
	Children []Command
}

func (Move) command()   {}
func (Attack) command() {}
func (Wait) command()   {}
func (Repeat) command() {}

func (Move) Kind() BlockType   { return TypeMove }
func (Attack) Kind() BlockType { return TypeAttack }
func (Wait) Kind() BlockType   { return TypeWait }
func (Repeat) Kind() BlockType { return TypeRepeat }

// Script is an ordered command list. Once handed to a unit it is treated as
// immutable; editors work on a Program and compile a fresh Script.
type Script []Command

// Clone returns a deep copy of s.
func (s Script) Clone() Script {
	if s == nil {
		return nil
	}
	out := make(Script, len(s))
	for i, c := range s {
		if r, ok := c.(Repeat); ok {
			r.Children = Script(r.Children).Clone()
			c = r
		}
		out[i] = c
	}
	return out
}

// Len counts every command in s, including nested ones.
func (s Script) Len() int {
	n := 0
	for _, c := range s {
		n++
		if r, ok := c.(Repeat); ok {
			n += Script(r.Children).Len()
		}
	}
	return n
}
