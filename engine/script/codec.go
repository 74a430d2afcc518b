package script

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ErrUnknownBlock is returned when decoding a block type that is not part of
// the language.
var ErrUnknownBlock = errors.New("unknown block type")

// Parameter names used by the block palette.
const (
	ParamTarget   = "target"
	ParamDuration = "duration"
	ParamTimes    = "times"
)

// Block is the wire form of a command, shared by the JSON save format and the
// YAML script files.
type Block struct {
	Type     BlockType         `json:"type" yaml:"type"`
	Params   map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
	Children []Block           `json:"children,omitempty" yaml:"children,omitempty"`
}

// Encode converts a script to wire blocks.
func Encode(s Script) []Block {
	out := make([]Block, 0, len(s))
	for _, c := range s {
		out = append(out, encodeOne(c))
	}
	return out
}

func encodeOne(c Command) Block {
	switch c := c.(type) {
	case Move:
		return Block{Type: TypeMove, Params: map[string]string{ParamTarget: c.Target}}
	case Attack:
		return Block{Type: TypeAttack, Params: map[string]string{ParamTarget: string(c.Policy)}}
	case Wait:
		return Block{Type: TypeWait, Params: map[string]string{ParamDuration: c.Duration}}
	case Repeat:
		return Block{
			Type:     TypeRepeat,
			Params:   map[string]string{ParamTimes: c.Times},
			Children: Encode(c.Children),
		}
	}
	panic(fmt.Sprintf("script: unhandled command %T", c))
}

// Decode converts wire blocks to a script. Parameter values are kept as
// written; only the block types are checked here. No blocks decode to a nil
// script.
func Decode(blocks []Block) (Script, error) {
	if len(blocks) == 0 {
		return nil, nil
	}
	out := make(Script, 0, len(blocks))
	for i, b := range blocks {
		c, err := decodeOne(b)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func decodeOne(b Block) (Command, error) {
	if b.Type != TypeRepeat && len(b.Children) > 0 {
		return nil, fmt.Errorf("%s block cannot have children", b.Type)
	}
	switch b.Type {
	case TypeMove:
		return Move{Target: b.Params[ParamTarget]}, nil
	case TypeAttack:
		return Attack{Policy: Policy(b.Params[ParamTarget])}, nil
	case TypeWait:
		return Wait{Duration: b.Params[ParamDuration]}, nil
	case TypeRepeat:
		children, err := Decode(b.Children)
		if err != nil {
			return nil, err
		}
		return Repeat{Times: b.Params[ParamTimes], Children: children}, nil
	}
	return nil, fmt.Errorf("%q: %w", b.Type, ErrUnknownBlock)
}

// MarshalJSON encodes the script as a block list.
func (s Script) MarshalJSON() ([]byte, error) {
	return json.Marshal(Encode(s))
}

// UnmarshalJSON decodes a block list.
func (s *Script) UnmarshalJSON(data []byte) error {
	var blocks []Block
	if err := json.Unmarshal(data, &blocks); err != nil {
		return err
	}
	dec, err := Decode(blocks)
	if err != nil {
		return err
	}
	*s = dec
	return nil
}

// file is the layout of a YAML script file.
type file struct {
	Name   string  `yaml:"name,omitempty"`
	Blocks []Block `yaml:"script"`
}

// LoadYAML reads a script file of the form
//
//	name: patrol
//	script:
//	  - type: MOVE
//	    params: {target: "2,0"}
func LoadYAML(r io.Reader) (string, Script, error) {
	var f file
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return "", nil, fmt.Errorf("decode script file: %w", err)
	}
	s, err := Decode(f.Blocks)
	if err != nil {
		return "", nil, fmt.Errorf("script %q: %w", f.Name, err)
	}
	return f.Name, s, nil
}

// WriteYAML writes s in the script file layout read by LoadYAML.
func WriteYAML(w io.Writer, name string, s Script) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file{Name: name, Blocks: Encode(s)}); err != nil {
		return fmt.Errorf("encode script file: %w", err)
	}
	return enc.Close()
}
