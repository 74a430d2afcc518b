// Package replay journals the player's actions in a match so it can be
// played back headless. Together with the AI seed the journal reproduces
// the match.
package replay

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/1siamBot/tactics-engine/engine/core"
)

// ActionType identifies a journaled player action
type ActionType uint8

const (
	ActPlace ActionType = iota + 1
	ActRun
	ActEndTurn
)

func (t ActionType) String() string {
	switch t {
	case ActPlace:
		return "place"
	case ActRun:
		return "run"
	case ActEndTurn:
		return "end-turn"
	}
	return fmt.Sprintf("action(%d)", uint8(t))
}

// ErrBadJournal is returned for a journal that cannot be decoded
var ErrBadJournal = errors.New("malformed journal")

// Action is one player action. Param holds the kind for a placement and the
// script as JSON for a run.
type Action struct {
	Turn  uint32
	Type  ActionType
	Unit  core.UnitID
	TileX int32
	TileZ int32
	Param string
}

// Encode writes an action in little-endian binary
func (a *Action) Encode(w io.Writer) error {
	fields := []any{a.Turn, a.Type, uint64(a.Unit), a.TileX, a.TileZ}
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	param := []byte(a.Param)
	if len(param) > 0xffff {
		return fmt.Errorf("param of %d bytes too long", len(param))
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(param))); err != nil {
		return err
	}
	_, err := w.Write(param)
	return err
}

// Decode reads an action. It returns io.EOF only at a clean boundary.
func (a *Action) Decode(r io.Reader) error {
	if err := binary.Read(r, binary.LittleEndian, &a.Turn); err != nil {
		if err == io.EOF {
			return err
		}
		return truncated(err)
	}
	var unit uint64
	fields := []any{&a.Type, &unit, &a.TileX, &a.TileZ}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return truncated(err)
		}
	}
	a.Unit = core.UnitID(unit)
	if a.Type < ActPlace || a.Type > ActEndTurn {
		return fmt.Errorf("%w: action type %d", ErrBadJournal, a.Type)
	}

	var plen uint16
	if err := binary.Read(r, binary.LittleEndian, &plen); err != nil {
		return truncated(err)
	}
	a.Param = ""
	if plen > 0 {
		buf := make([]byte, plen)
		if _, err := io.ReadFull(r, buf); err != nil {
			return truncated(err)
		}
		a.Param = string(buf)
	}
	return nil
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated action", ErrBadJournal)
	}
	return err
}

// Journal is the AI seed followed by the actions in order
type Journal struct {
	Seed    uint64
	Actions []Action
}

// WriteTo writes the whole journal
func (j *Journal) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	if err := binary.Write(cw, binary.LittleEndian, j.Seed); err != nil {
		return cw.n, err
	}
	for i := range j.Actions {
		if err := j.Actions[i].Encode(cw); err != nil {
			return cw.n, err
		}
	}
	return cw.n, nil
}

// Read decodes a journal written by WriteTo or a Recorder
func Read(r io.Reader) (*Journal, error) {
	j := &Journal{}
	if err := binary.Read(r, binary.LittleEndian, &j.Seed); err != nil {
		return nil, fmt.Errorf("%w: missing seed", ErrBadJournal)
	}
	for {
		var a Action
		err := a.Decode(r)
		if errors.Is(err, io.EOF) {
			return j, nil
		}
		if err != nil {
			return nil, err
		}
		j.Actions = append(j.Actions, a)
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
