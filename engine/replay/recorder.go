package replay

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/1siamBot/tactics-engine/engine/core"
	"github.com/1siamBot/tactics-engine/engine/script"
	"github.com/1siamBot/tactics-engine/engine/session"
)

// Recorder appends actions to a journal file as they happen. It is safe for
// concurrent use.
type Recorder struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
}

// NewRecorder creates the journal file and writes the seed
func NewRecorder(path string, seed uint64) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	r := &Recorder{file: f, writer: bufio.NewWriter(f)}
	if err := binary.Write(r.writer, binary.LittleEndian, seed); err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func (r *Recorder) record(a Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := a.Encode(r.writer); err != nil {
		return err
	}
	return r.writer.Flush()
}

// Place journals a successful placement
func (r *Recorder) Place(turn int, id core.UnitID, kind core.Kind, tile session.Tile) error {
	return r.record(Action{Turn: uint32(turn), Type: ActPlace, Unit: id, TileX: int32(tile.X), TileZ: int32(tile.Z), Param: string(kind)})
}

// Run journals a script run started on a unit
func (r *Recorder) Run(turn int, id core.UnitID, sc script.Script) error {
	data, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("encoding script: %w", err)
	}
	return r.record(Action{Turn: uint32(turn), Type: ActRun, Unit: id, Param: string(data)})
}

// EndTurn journals a completed turn
func (r *Recorder) EndTurn(turn int) error {
	return r.record(Action{Turn: uint32(turn), Type: ActEndTurn})
}

// Close flushes and closes the journal file
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.writer.Flush(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}

// Load reads a journal file
func Load(path string) (*Journal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(bufio.NewReader(f))
}
