// Package config provides configuration management for the trivia race server.
//
// The config package handles:
//   - Loading race configurations from JSON files
//   - Rule tuning through an optional rules.yaml
//   - Loading the question bank (questions.json)
//   - Configuration discovery and listing
//
// Configuration Format:
//
// Race configurations are stored as JSON files in the configs directory.
// Each configuration defines the teams, the path (explicit tiles or layout
// rows mapped through a legend), checkpoints, stage names, an optional rules
// block and the announcement messages.
//
// A rules.yaml in the same directory overrides the default rules for every
// configuration that does not carry its own rules block:
//
//	mine_damage: 5
//	decay_periods:
//	  engine: 4
//	  tires: 3
//	  steering: 5
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameConfig, err := manager.LoadConfig("classic")
//	bank := manager.Questions()
//	configs, err := manager.ListConfigs()
package config
