// Package config loads balance, pacing and AI settings with viper. Every key
// has a default, so a missing config file is not an error.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/1siamBot/tactics-engine/engine/ai"
	"github.com/1siamBot/tactics-engine/engine/core"
	"github.com/1siamBot/tactics-engine/engine/interp"
	"github.com/1siamBot/tactics-engine/engine/logging"
	"github.com/1siamBot/tactics-engine/engine/maplib"
	"github.com/1siamBot/tactics-engine/engine/systems"
)

// FileName is looked up in the directory passed to Load
const FileName = "tactics.cfg.json"

// EnvPrefix prefixes environment overrides, e.g. TACTICS_BALANCE_TREASURY.
const EnvPrefix = "TACTICS"

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logJSON", false)
	viper.SetDefault("savePath", "./tactics.db")

	viper.SetDefault("balance.treasury", 500)
	viper.SetDefault("balance.captureRadius", 4.0)
	viper.SetDefault("balance.moveBudgetFactor", 2.0)
	viper.SetDefault("balance.placementRadius", 10.0)
	viper.SetDefault("balance.baseIncome", 100)
	viper.SetDefault("balance.incomeRate", 150)

	viper.SetDefault("pacing.move", "800ms")
	viper.SetDefault("pacing.attack", "500ms")

	viper.SetDefault("ai.think", "1s")
	viper.SetDefault("ai.spawnChance", 0.5)
	viper.SetDefault("ai.spawnRule", ai.DefaultSpawnRule)
	viper.SetDefault("ai.spawnKind", string(core.KindTank))
	viper.SetDefault("ai.seed", 0)
	viper.SetDefault("ai.homeX", 12.0)
	viper.SetDefault("ai.homeZ", 12.0)
	viper.SetDefault("ai.jitter", 2.0)

	viper.SetDefault("map.size", 20)
	viper.SetDefault("map.seed", 0)
	viper.SetDefault("map.roughness", 0.0)
	viper.SetDefault("map.file", "")

	for kind, s := range core.DefaultCatalog() {
		k := "units." + string(kind)
		viper.SetDefault(k+".name", s.Name)
		viper.SetDefault(k+".cost", s.Cost)
		viper.SetDefault(k+".hp", s.MaxHP)
		viper.SetDefault(k+".damage", s.Damage)
		viper.SetDefault(k+".range", s.Range)
		viper.SetDefault(k+".speed", s.Speed)
		viper.SetDefault(k+".ap", s.MaxAP)
		viper.SetDefault(k+".height", s.Height)
		viper.SetDefault(k+".flying", s.Flying)
	}
}

// Load sets defaults, reads configDir/tactics.cfg.json if it exists and
// enables TACTICS_* environment overrides.
func Load(configDir string) error {
	setDefaults()

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(FileName)
	viper.SetConfigType("json")
	if configDir != "" {
		viper.AddConfigPath(configDir)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// Balance holds the economy and rule constants
type Balance struct {
	Treasury int
	Rules    systems.Rules
}

// GetBalance returns the balance section
func GetBalance() Balance {
	return Balance{
		Treasury: viper.GetInt("balance.treasury"),
		Rules: systems.Rules{
			CaptureRadius:    viper.GetFloat64("balance.captureRadius"),
			MoveBudgetFactor: viper.GetFloat64("balance.moveBudgetFactor"),
			PlacementRadius:  viper.GetFloat64("balance.placementRadius"),
			BaseIncome:       viper.GetInt("balance.baseIncome"),
			IncomeRate:       viper.GetInt("balance.incomeRate"),
		},
	}
}

// GetPacing returns the interpreter step delays
func GetPacing() interp.Pacing {
	return interp.Pacing{
		Move:   viper.GetDuration("pacing.move"),
		Attack: viper.GetDuration("pacing.attack"),
	}
}

// AI holds the enemy settings. Seed 0 means a random seed.
type AI struct {
	Think       time.Duration
	SpawnChance float64
	SpawnRule   string
	SpawnKind   core.Kind
	Seed        uint64
	Home        core.Vec3
	Jitter      float64
}

// GetAI returns the ai section
func GetAI() AI {
	return AI{
		Think:       viper.GetDuration("ai.think"),
		SpawnChance: viper.GetFloat64("ai.spawnChance"),
		SpawnRule:   viper.GetString("ai.spawnRule"),
		SpawnKind:   core.Kind(strings.ToUpper(viper.GetString("ai.spawnKind"))),
		Seed:        viper.GetUint64("ai.seed"),
		Home:        core.Vec3{X: viper.GetFloat64("ai.homeX"), Z: viper.GetFloat64("ai.homeZ")},
		Jitter:      viper.GetFloat64("ai.jitter"),
	}
}

// GetCatalog returns the unit roster. Fields are read one key at a time so
// a file that overrides only a unit's cost keeps the other default stats.
// Viper folds keys to lower case; kind names are upper-cased again here.
func GetCatalog() (core.Catalog, error) {
	names := map[string]bool{}
	for k := range core.DefaultCatalog() {
		names[strings.ToLower(string(k))] = true
	}
	for k := range viper.GetStringMap("units") {
		names[strings.ToLower(k)] = true
	}

	out := make(core.Catalog, len(names))
	for name := range names {
		k := "units." + name
		s := core.KindStats{
			Name:   viper.GetString(k + ".name"),
			Cost:   viper.GetInt(k + ".cost"),
			MaxHP:  viper.GetInt(k + ".hp"),
			Damage: viper.GetInt(k + ".damage"),
			Range:  viper.GetFloat64(k + ".range"),
			Speed:  viper.GetFloat64(k + ".speed"),
			MaxAP:  viper.GetInt(k + ".ap"),
			Height: viper.GetFloat64(k + ".height"),
			Flying: viper.GetBool(k + ".flying"),
		}
		if s.MaxHP <= 0 || s.MaxAP < 0 || s.Cost < 0 {
			return nil, fmt.Errorf("unit %s: hp must be positive, ap and cost not negative", strings.ToUpper(name))
		}
		out[core.Kind(strings.ToUpper(name))] = s
	}
	return out, nil
}

// GetMap returns the map generation settings and an optional map file that
// overrides generation.
func GetMap() (maplib.GenConfig, string) {
	cfg := maplib.DefaultGenConfig()
	cfg.Size = viper.GetInt("map.size")
	cfg.Seed = viper.GetInt64("map.seed")
	cfg.Roughness = viper.GetFloat64("map.roughness")
	return cfg, viper.GetString("map.file")
}

// GetLogging returns logger options; the caller supplies the sinks.
func GetLogging() logging.Options {
	return logging.Options{
		Level: viper.GetString("logLevel"),
		JSON:  viper.GetBool("logJSON"),
	}
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}
