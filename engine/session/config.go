package session

import (
	"math/rand/v2"

	"github.com/1siamBot/tactics-engine/engine/ai"
	"github.com/1siamBot/tactics-engine/engine/config"
	"github.com/1siamBot/tactics-engine/engine/maplib"
)

// OptionsFromConfig builds session options from the loaded configuration.
// Pacer, Logger and Metrics are left for the caller.
func OptionsFromConfig() (Options, error) {
	kinds, err := config.GetCatalog()
	if err != nil {
		return Options{}, err
	}
	bal := config.GetBalance()

	gen, mapFile := config.GetMap()
	var tm *maplib.TileMap
	if mapFile != "" {
		if tm, err = maplib.LoadJSON(mapFile); err != nil {
			return Options{}, err
		}
	} else {
		tm = maplib.Generate(gen)
	}

	cfg := config.GetAI()
	aiOpts := ai.DefaultOptions()
	aiOpts.Rules = bal.Rules
	aiOpts.Think = cfg.Think
	aiOpts.SpawnChance = cfg.SpawnChance
	aiOpts.SpawnRule = cfg.SpawnRule
	aiOpts.SpawnKind = cfg.SpawnKind
	aiOpts.Home = cfg.Home
	aiOpts.Jitter = cfg.Jitter
	if cfg.Seed != 0 {
		aiOpts.Rand = rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	}

	return Options{
		Catalog:  kinds,
		Treasury: &bal.Treasury,
		Rules:    bal.Rules,
		Pacing:   config.GetPacing(),
		AI:       &aiOpts,
		Map:      tm,
	}, nil
}
