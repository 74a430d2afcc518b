package script

// PreviewRepeatCap bounds REPEAT expansion in previews so a large count
// cannot flood the editor.
const PreviewRepeatCap = 5

// StepType classifies one preview step
type StepType string

const (
	StepStart  StepType = "start"
	StepMove   StepType = "move"
	StepAttack StepType = "attack"
)

// PreviewStep is one point on the previewed path.
type PreviewStep struct {
	Type  StepType
	At    Point
	Valid bool
	Dist  float64
}

// Preview simulates s from start without touching any world state. Moves
// are marked invalid when they exceed speed*factor, but the simulated
// position still advances to the target. Malformed moves are skipped.
func Preview(start Point, speed, factor float64, s Script) []PreviewStep {
	pv := previewer{pos: start, budget: speed * factor}
	pv.steps = append(pv.steps, PreviewStep{Type: StepStart, At: start, Valid: true})
	pv.walk(s)
	return pv.steps
}

type previewer struct {
	pos    Point
	budget float64
	steps  []PreviewStep
}

func (pv *previewer) walk(s []Command) {
	for _, c := range s {
		switch c := c.(type) {
		case Move:
			to, err := ParseTarget(c.Target)
			if err != nil {
				continue
			}
			d := pv.pos.Dist(to)
			pv.pos = to
			pv.steps = append(pv.steps, PreviewStep{Type: StepMove, At: to, Valid: d <= pv.budget, Dist: d})
		case Attack:
			pv.steps = append(pv.steps, PreviewStep{Type: StepAttack, At: pv.pos, Valid: true})
		case Repeat:
			n, err := ParseTimes(c.Times)
			if err != nil {
				continue
			}
			for range min(n, PreviewRepeatCap) {
				pv.walk(c.Children)
			}
		case Wait:
		}
	}
}
