package script

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in      string
		want    Point
		wantErr bool
	}{
		{"2,0", Point{X: 2, Z: 0}, false},
		{" -3.5 , 4 ", Point{X: -3.5, Z: 4}, false},
		{"abc", Point{}, true},
		{"1,2,3", Point{}, true},
		{"1,", Point{}, true},
		{"NaN,1", Point{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTarget(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedParam)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("")
	require.NoError(t, err)
	assert.Equal(t, DefaultWait, d)

	d, err = ParseDuration("0.5")
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, d)

	_, err = ParseDuration("soon")
	assert.ErrorIs(t, err, ErrMalformedParam)
	_, err = ParseDuration("-1")
	assert.ErrorIs(t, err, ErrMalformedParam)
	_, err = ParseDuration("1e12")
	assert.ErrorIs(t, err, ErrMalformedParam)
	_, err = ParseDuration("Inf")
	assert.ErrorIs(t, err, ErrMalformedParam)
}

func TestParseTimes(t *testing.T) {
	n, err := ParseTimes("3")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = ParseTimes("-2")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = ParseTimes("x")
	assert.ErrorIs(t, err, ErrMalformedParam)
}

func TestDecode_UnknownType(t *testing.T) {
	_, err := Decode([]Block{{Type: "JUMP"}})
	assert.ErrorIs(t, err, ErrUnknownBlock)
}

func TestDecode_ChildrenOnlyOnRepeat(t *testing.T) {
	_, err := Decode([]Block{{Type: TypeMove, Children: []Block{{Type: TypeWait}}}})
	assert.Error(t, err)
}

func TestScriptJSON(t *testing.T) {
	s := Script{
		Move{Target: "2,0"},
		Repeat{Times: "3", Children: []Command{Attack{Policy: PolicyWeakest}, Wait{Duration: "1"}}},
	}
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"REPEAT"`)

	var back Script
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s, back)
}

func TestLoadYAML(t *testing.T) {
	src := `
name: patrol
script:
  - type: MOVE
    params: {target: "2,0"}
  - type: REPEAT
    params: {times: "2"}
    children:
      - type: ATTACK
        params: {target: closest}
`
	name, s, err := LoadYAML(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, "patrol", name)
	require.Len(t, s, 2)
	rep, ok := s[1].(Repeat)
	require.True(t, ok)
	assert.Equal(t, Script{Attack{Policy: PolicyClosest}}, Script(rep.Children))

	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, name, s))
	name2, s2, err := LoadYAML(&buf)
	require.NoError(t, err)
	assert.Equal(t, name, name2)
	assert.Equal(t, s, s2)
}

func TestScriptCloneAndLen(t *testing.T) {
	s := Script{Repeat{Times: "2", Children: []Command{Move{Target: "1,1"}}}, Wait{}}
	c := s.Clone()
	c[0].(Repeat).Children[0] = Wait{}
	assert.Equal(t, Move{Target: "1,1"}, s[0].(Repeat).Children[0])
	assert.Equal(t, 3, s.Len())
}
