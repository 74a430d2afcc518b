package script

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	ErrNoNode       = errors.New("no such block")
	ErrNotContainer = errors.New("block cannot hold children")
	ErrUnknownParam = errors.New("unknown parameter")
	ErrCrossParent  = errors.New("blocks have different parents")
	ErrCycle        = errors.New("block cannot be moved into itself")
)

// NodeID addresses a block inside a Program. IDs are never reused.
type NodeID int

// Root is the parent of top-level blocks.
const Root NodeID = -1

// Palette defaults, matching what a freshly dropped block shows.
var defaults = map[BlockType]map[string]string{
	TypeMove:   {ParamTarget: "0,0"},
	TypeAttack: {ParamTarget: string(PolicyClosest)},
	TypeWait:   {ParamDuration: "1"},
	TypeRepeat: {ParamTimes: "3"},
}

type node struct {
	typ      BlockType
	params   map[string]string
	parent   NodeID
	children []NodeID
	removed  bool
}

// Program is the editable form of a script: a flat arena of blocks linked by
// parent and child indices. Edits touch single nodes; Compile builds the
// immutable Script handed to a unit.
type Program struct {
	nodes []node
	roots []NodeID
}

// NewProgram returns an empty program.
func NewProgram() *Program {
	return &Program{}
}

// FromScript loads s into a new program.
func FromScript(s Script) *Program {
	p := NewProgram()
	p.load(Root, s)
	return p
}

func (p *Program) load(parent NodeID, s Script) {
	for _, c := range s {
		b := encodeOne(c)
		id := p.insert(parent, b.Type, b.Params)
		if r, ok := c.(Repeat); ok {
			p.load(id, r.Children)
		}
	}
}

func (p *Program) insert(parent NodeID, t BlockType, params map[string]string) NodeID {
	id := NodeID(len(p.nodes))
	p.nodes = append(p.nodes, node{typ: t, params: maps.Clone(params), parent: parent})
	if parent == Root {
		p.roots = append(p.roots, id)
	} else {
		p.nodes[parent].children = append(p.nodes[parent].children, id)
	}
	return id
}

func (p *Program) get(id NodeID) (*node, error) {
	if id < 0 || int(id) >= len(p.nodes) || p.nodes[id].removed {
		return nil, fmt.Errorf("block %d: %w", id, ErrNoNode)
	}
	return &p.nodes[id], nil
}

// siblings returns the child list that holds blocks under parent.
func (p *Program) siblings(parent NodeID) *[]NodeID {
	if parent == Root {
		return &p.roots
	}
	return &p.nodes[parent].children
}

// Append adds a block of type t with palette defaults at the end of parent.
func (p *Program) Append(parent NodeID, t BlockType) (NodeID, error) {
	def, ok := defaults[t]
	if !ok {
		return 0, fmt.Errorf("%q: %w", t, ErrUnknownBlock)
	}
	if parent != Root {
		n, err := p.get(parent)
		if err != nil {
			return 0, err
		}
		if n.typ != TypeRepeat {
			return 0, fmt.Errorf("block %d (%s): %w", parent, n.typ, ErrNotContainer)
		}
	}
	return p.insert(parent, t, def), nil
}

// SetParam updates one parameter. The value is stored verbatim.
func (p *Program) SetParam(id NodeID, name, value string) error {
	n, err := p.get(id)
	if err != nil {
		return err
	}
	if _, ok := defaults[n.typ][name]; !ok {
		return fmt.Errorf("%s.%s: %w", n.typ, name, ErrUnknownParam)
	}
	n.params[name] = value
	return nil
}

// Remove deletes a block and everything nested under it.
func (p *Program) Remove(id NodeID) error {
	n, err := p.get(id)
	if err != nil {
		return err
	}
	sib := p.siblings(n.parent)
	*sib = slices.DeleteFunc(*sib, func(c NodeID) bool { return c == id })
	p.tombstone(id)
	return nil
}

func (p *Program) tombstone(id NodeID) {
	n := &p.nodes[id]
	n.removed = true
	for _, c := range n.children {
		p.tombstone(c)
	}
	n.children = nil
}

// MoveTo reorders a dragged block onto the slot of the block it was dropped
// on. Both blocks must share a parent.
func (p *Program) MoveTo(dragID, hoverID NodeID) error {
	if dragID == hoverID {
		return nil
	}
	drag, err := p.get(dragID)
	if err != nil {
		return err
	}
	hover, err := p.get(hoverID)
	if err != nil {
		return err
	}
	if drag.parent != hover.parent {
		return ErrCrossParent
	}
	sib := p.siblings(drag.parent)
	from := slices.Index(*sib, dragID)
	to := slices.Index(*sib, hoverID)
	*sib = slices.Delete(*sib, from, from+1)
	*sib = slices.Insert(*sib, to, dragID)
	return nil
}

// MoveInto re-parents a block to the end of parent.
func (p *Program) MoveInto(id, parent NodeID) error {
	n, err := p.get(id)
	if err != nil {
		return err
	}
	if parent != Root {
		dst, err := p.get(parent)
		if err != nil {
			return err
		}
		if dst.typ != TypeRepeat {
			return fmt.Errorf("block %d (%s): %w", parent, dst.typ, ErrNotContainer)
		}
		for a := parent; a != Root; a = p.nodes[a].parent {
			if a == id {
				return ErrCycle
			}
		}
	}
	sib := p.siblings(n.parent)
	*sib = slices.DeleteFunc(*sib, func(c NodeID) bool { return c == id })
	n.parent = parent
	dst := p.siblings(parent)
	*dst = append(*dst, id)
	return nil
}

// Roots returns the top-level block ids in order.
func (p *Program) Roots() []NodeID {
	return slices.Clone(p.roots)
}

// Children returns the ids nested directly under id.
func (p *Program) Children(id NodeID) []NodeID {
	if id == Root {
		return p.Roots()
	}
	n, err := p.get(id)
	if err != nil {
		return nil
	}
	return slices.Clone(n.children)
}

// Block returns the wire view of one block without its children.
func (p *Program) Block(id NodeID) (Block, bool) {
	n, err := p.get(id)
	if err != nil {
		return Block{}, false
	}
	return Block{Type: n.typ, Params: maps.Clone(n.params)}, true
}

// Parent returns the parent of id, or Root for top-level blocks.
func (p *Program) Parent(id NodeID) (NodeID, bool) {
	n, err := p.get(id)
	if err != nil {
		return Root, false
	}
	return n.parent, true
}

// Compile builds an immutable script from the current arena.
func (p *Program) Compile() Script {
	return p.compile(p.roots)
}

func (p *Program) compile(ids []NodeID) Script {
	out := make(Script, 0, len(ids))
	for _, id := range ids {
		n := p.nodes[id]
		switch n.typ {
		case TypeMove:
			out = append(out, Move{Target: n.params[ParamTarget]})
		case TypeAttack:
			out = append(out, Attack{Policy: Policy(n.params[ParamTarget])})
		case TypeWait:
			out = append(out, Wait{Duration: n.params[ParamDuration]})
		case TypeRepeat:
			out = append(out, Repeat{Times: n.params[ParamTimes], Children: p.compile(n.children)})
		}
	}
	return out
}
