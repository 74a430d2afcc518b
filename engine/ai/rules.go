package ai

import (
	"fmt"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Decision is what one enemy unit does with its turn
type Decision uint8

const (
	Hold Decision = iota
	Engage
	AdvanceOnUnit
	AdvanceOnPoint
)

func (d Decision) String() string {
	switch d {
	case Engage:
		return "engage"
	case AdvanceOnUnit:
		return "advance-unit"
	case AdvanceOnPoint:
		return "advance-point"
	}
	return "hold"
}

// Env is what rule conditions can see. Field names are the identifiers
// available in expressions.
type Env struct {
	HasTarget       bool    // a live player unit exists
	InRange         bool    // nearest player unit is within weapon range
	Distance        float64 // to the nearest player unit
	AP              int
	HP              int
	MaxHP           int
	ContestedPoints int // capture points not held by the enemy
	EnemyCount      int
	PlayerCount     int
	Turn            int
	Roll            float64 // uniform [0,1), drawn once per spawn check
	SpawnChance     float64
}

// Rule is a condition -> decision pair. Rules are tried by descending
// priority and the first match wins.
type Rule struct {
	Name         string
	Priority     int
	ConditionSrc string
	Decision     Decision
	program      *vm.Program
}

// DefaultRules encode the stock policy: shoot when the nearest player unit
// is in range, otherwise close on it, otherwise go for a point the enemy
// does not hold, otherwise hold.
func DefaultRules() []*Rule {
	return []*Rule{
		{Name: "engage", Priority: 300, ConditionSrc: `HasTarget && InRange && AP > 0`, Decision: Engage},
		{Name: "advance-unit", Priority: 200, ConditionSrc: `HasTarget && AP > 0`, Decision: AdvanceOnUnit},
		{Name: "advance-point", Priority: 100, ConditionSrc: `ContestedPoints > 0 && AP > 0`, Decision: AdvanceOnPoint},
	}
}

// DefaultSpawnRule rolls the fixed reinforcement chance
const DefaultSpawnRule = `Roll < SpawnChance`

func compile(src string) (*vm.Program, error) {
	return expr.Compile(src, expr.Env(Env{}), expr.AsBool())
}

// compileRules compiles every condition and sorts by priority, highest first.
func compileRules(rules []*Rule) ([]*Rule, error) {
	out := make([]*Rule, 0, len(rules))
	for _, r := range rules {
		prog, err := compile(r.ConditionSrc)
		if err != nil {
			return nil, fmt.Errorf("compiling rule %q: %w", r.Name, err)
		}
		cp := *r
		cp.program = prog
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out, nil
}

// evaluate returns the first matching rule, or nil.
func evaluate(rules []*Rule, env Env) (*Rule, error) {
	for _, r := range rules {
		ok, err := run(r.program, env)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		if ok {
			return r, nil
		}
	}
	return nil, nil
}

func run(prog *vm.Program, env Env) (bool, error) {
	out, err := vm.Run(prog, env)
	if err != nil {
		return false, err
	}
	match, ok := out.(bool)
	return ok && match, nil
}
