package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1siamBot/tactics-engine/engine/ai"
	"github.com/1siamBot/tactics-engine/engine/core"
	"github.com/1siamBot/tactics-engine/engine/interp"
	"github.com/1siamBot/tactics-engine/engine/systems"
)

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(t.TempDir()))

	b := GetBalance()
	assert.Equal(t, 500, b.Treasury)
	assert.Equal(t, systems.DefaultRules(), b.Rules)
	assert.Equal(t, interp.DefaultPacing(), GetPacing())

	a := GetAI()
	assert.Equal(t, time.Second, a.Think)
	assert.Equal(t, 0.5, a.SpawnChance)
	assert.Equal(t, ai.DefaultSpawnRule, a.SpawnRule)
	assert.Equal(t, core.KindTank, a.SpawnKind)
	assert.Equal(t, core.Vec3{X: 12, Z: 12}, a.Home)
	assert.Equal(t, 2.0, a.Jitter)

	cat, err := GetCatalog()
	require.NoError(t, err)
	assert.Equal(t, core.DefaultCatalog(), cat)

	gen, file := GetMap()
	assert.Equal(t, 20, gen.Size)
	assert.Empty(t, file)
	assert.Equal(t, "info", GetLogging().Level)
	assert.Equal(t, "./tactics.db", GetString("savePath"))
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := `{
		"logLevel": "debug",
		"balance": { "treasury": 900, "incomeRate": 200 },
		"pacing": { "move": "100ms" },
		"ai": { "spawnRule": "Roll < SpawnChance && EnemyCount < 8", "spawnKind": "heli" },
		"units": { "INFANTRY": { "cost": 40 }, "MEDIC": { "name": "Medic", "cost": 80, "hp": 30, "ap": 1, "speed": 4 } }
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(cfg), 0644))
	require.NoError(t, Load(dir))

	assert.Equal(t, "debug", GetLogging().Level)
	b := GetBalance()
	assert.Equal(t, 900, b.Treasury)
	assert.Equal(t, 200, b.Rules.IncomeRate)
	assert.Equal(t, 100, b.Rules.BaseIncome)

	p := GetPacing()
	assert.Equal(t, 100*time.Millisecond, p.Move)
	assert.Equal(t, 500*time.Millisecond, p.Attack)

	a := GetAI()
	assert.Equal(t, "Roll < SpawnChance && EnemyCount < 8", a.SpawnRule)
	assert.Equal(t, core.KindHeli, a.SpawnKind)

	cat, err := GetCatalog()
	require.NoError(t, err)
	require.Contains(t, cat, core.KindInfantry)
	assert.Equal(t, 40, cat[core.KindInfantry].Cost)
	assert.Equal(t, 50, cat[core.KindInfantry].MaxHP, "untouched stats keep defaults")
	require.Contains(t, cat, core.Kind("MEDIC"))
	assert.Equal(t, 30, cat["MEDIC"].MaxHP)
	assert.Len(t, cat, 4)
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load("/nonexistent/path"))
	assert.Equal(t, 500, GetBalance().Treasury)
}

func TestLoad_BrokenFile(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`{ nope`), 0644))

	err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("TACTICS_BALANCE_TREASURY", "1234")
	t.Setenv("TACTICS_AI_SPAWNCHANCE", "0.25")
	require.NoError(t, Load(t.TempDir()))

	assert.Equal(t, 1234, GetBalance().Treasury)
	assert.Equal(t, 0.25, GetAI().SpawnChance)
}

func TestGetCatalog_RejectsBadUnit(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(t.TempDir()))
	viper.Set("units.TANK.hp", 0)

	_, err := GetCatalog()
	assert.Error(t, err)
}
