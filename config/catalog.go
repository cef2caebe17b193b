package config

import (
	"fmt"
	"os"

	"crdo-backend/engine"

	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Achievements []engine.AchievementDefinition `yaml:"achievements"`
}

// LoadCatalog reads an achievement catalog from a YAML file of the form
//
//	achievements:
//	  - category: distance
//	    threshold: 3.1
//	    description: Complete a 5km run
//	    points: 50
//	    gems: 5
func LoadCatalog(path string) (engine.Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return engine.Catalog{}, fmt.Errorf("read achievements file: %w", err)
	}
	return ParseCatalog(raw)
}

func ParseCatalog(raw []byte) (engine.Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return engine.Catalog{}, fmt.Errorf("parse achievements file: %w", err)
	}
	if len(f.Achievements) == 0 {
		return engine.Catalog{}, fmt.Errorf("achievements file defines no achievements")
	}
	return engine.NewCatalog(f.Achievements)
}
