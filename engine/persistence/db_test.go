package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1siamBot/tactics-engine/engine/core"
	"github.com/1siamBot/tactics-engine/engine/script"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "saves.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleState() State {
	return State{
		Turn:       core.TurnState{Phase: core.PhasePlayer, Number: 3},
		Treasury:   640,
		LastIncome: 250,
		Units: []core.Unit{
			{
				ID: 1, Team: core.TeamPlayer, Kind: core.KindInfantry, HP: 35, MaxHP: 50,
				Position: core.Vec3{X: -12, Y: 0.5, Z: -12}, AP: 2, MaxAP: 2,
				Script: script.Script{
					script.Repeat{Times: "3", Children: []script.Command{
						script.Move{Target: "4,-2"},
						script.Attack{Policy: script.PolicyWeakest},
					}},
					script.Wait{Duration: "abc"},
				},
			},
			{ID: 7, Team: core.TeamEnemy, Kind: core.KindTank, HP: 200, MaxHP: 200,
				Position: core.Vec3{X: 13, Y: 0.8, Z: 12.5}, MaxAP: 2},
		},
		Points: []core.CapturePoint{
			{ID: 1, Position: core.Vec3{X: -15, Z: -15}, Owner: core.TeamPlayer},
			{ID: 3, Owner: core.TeamNeutral},
		},
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	st := sampleState()
	id, err := db.Save(ctx, st)
	require.NoError(t, err)
	assert.Len(t, id, 36)

	got, err := db.Load(ctx, id)
	require.NoError(t, err)
	st.Version = formatVersion
	assert.Equal(t, st, got)
	assert.Equal(t, "abc", got.Units[0].Script[1].(script.Wait).Duration, "malformed params survive verbatim")
}

func TestLoad_Unknown(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = db.Latest(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoad_DetectsTampering(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	id, err := db.Save(ctx, sampleState())
	require.NoError(t, err)

	other, err := compress([]byte(`{"version":1,"treasury":999999}`))
	require.NoError(t, err)
	_, err = db.conn.Exec("UPDATE saves SET blob = ? WHERE id = ?", other, id)
	require.NoError(t, err)
	_, err = db.Load(ctx, id)
	assert.ErrorIs(t, err, ErrChecksum)

	_, err = db.conn.Exec("UPDATE saves SET blob = ? WHERE id = ?", []byte("not lz4"), id)
	require.NoError(t, err)
	_, err = db.Load(ctx, id)
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestListAndLatest(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	db.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	var ids []string
	for turn := 1; turn <= 3; turn++ {
		st := sampleState()
		st.Turn.Number = turn
		id, err := db.Save(ctx, st)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	list, err := db.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, 3, list[0].Turn)
	assert.Equal(t, core.PhasePlayer, list[0].Phase)
	assert.Equal(t, 640, list[0].Treasury)
	assert.Equal(t, base.Add(3*time.Minute), list[0].CreatedAt)
	assert.Equal(t, ids[0], list[2].ID)

	st, id, err := db.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, ids[2], id)
	assert.Equal(t, 3, st.Turn.Number)
}

func TestMeta(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.SaveMeta(ctx, "map", "classic"))
	v, err := db.GetMeta(ctx, "map")
	require.NoError(t, err)
	assert.Equal(t, "classic", v)
}
