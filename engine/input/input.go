// Package input samples mouse and keyboard once per frame.
package input

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Action is a keyboard command of the viewer
type Action int

const (
	ActionNone Action = iota
	ActionRun
	ActionEndTurn
	ActionSave
	ActionLoad
	ActionDeselect
	ActionKind1
	ActionKind2
	ActionKind3
)

// Bindings maps keys to actions
var Bindings = map[ebiten.Key]Action{
	ebiten.KeyR:      ActionRun,
	ebiten.KeyE:      ActionEndTurn,
	ebiten.KeyF5:     ActionSave,
	ebiten.KeyF9:     ActionLoad,
	ebiten.KeyEscape: ActionDeselect,
	ebiten.Key1:      ActionKind1,
	ebiten.Key2:      ActionKind2,
	ebiten.Key3:      ActionKind3,
}

// State tracks mouse and keyboard state per frame
type State struct {
	MouseX, MouseY   int
	MouseDX, MouseDY int // delta since last frame
	prevMouseX       int
	prevMouseY       int
	LeftClicked      bool // released without dragging
	ScrollY          float64

	PanX, PanY float64 // -1, 0 or 1 from WASD and arrows
	Actions    []Action

	// a left drag pans the camera instead of clicking
	dragStartX, dragStartY int
	Dragging               bool
	DragThreshold          int
}

// NewState returns a state with the default drag threshold
func NewState() *State {
	return &State{DragThreshold: 5}
}

// Update should be called every frame
func (s *State) Update() {
	s.prevMouseX = s.MouseX
	s.prevMouseY = s.MouseY
	s.MouseX, s.MouseY = ebiten.CursorPosition()
	s.MouseDX = s.MouseX - s.prevMouseX
	s.MouseDY = s.MouseY - s.prevMouseY

	leftDown := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		s.dragStartX = s.MouseX
		s.dragStartY = s.MouseY
		s.Dragging = false
	}
	if leftDown && !s.Dragging {
		dx := s.MouseX - s.dragStartX
		dy := s.MouseY - s.dragStartY
		if dx*dx+dy*dy > s.DragThreshold*s.DragThreshold {
			s.Dragging = true
		}
	}
	s.LeftClicked = inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) && !s.Dragging
	if !leftDown {
		s.Dragging = false
	}

	_, s.ScrollY = ebiten.Wheel()

	s.PanX, s.PanY = 0, 0
	if ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyUp) {
		s.PanY--
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyDown) {
		s.PanY++
	}
	if ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyLeft) {
		s.PanX--
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyRight) {
		s.PanX++
	}

	s.Actions = s.Actions[:0]
	for k, a := range Bindings {
		if inpututil.IsKeyJustPressed(k) {
			s.Actions = append(s.Actions, a)
		}
	}
}
