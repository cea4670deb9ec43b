// Command validate provides a small CLI that validates race configuration
// files in the ../configs directory (or the directory given as argument). It checks:
//   - JSON structure, rejecting unknown fields
//   - Teams, layout codes, checkpoints and rules via the engine validator
//   - The finish tile is the last tile of the path and appears once
//   - Layout rows share one width so the path stays adjacent on screen
//   - Stage names match the checkpoints, and the entry tile is not a hazard
//
// The question bank (questions.json) and the rules tuning file (rules.yaml)
// are validated as well when present.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/triviarace/game/config"
	"github.com/wricardo/mcp-training/triviarace/game/engine"
	"github.com/wricardo/mcp-training/triviarace/game/questions"
)

// ValidationResult captures the outcome of validating a single file.
// Errors make the file invalid; Info holds the summary and warnings.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
	Info   []string
}

func newResult(filePath string) ValidationResult {
	return ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
		Info:   []string{},
	}
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warn(format string, args ...any) {
	r.Info = append(r.Info, "⚠ "+fmt.Sprintf(format, args...))
}

// hazards are tile types that should not greet a team entering the track
var hazards = map[engine.TileType]bool{
	engine.TileMine:         true,
	engine.TileSkipTurn:     true,
	engine.TileDropEngine:   true,
	engine.TileDropTire:     true,
	engine.TileDropSteering: true,
	engine.TileDamageAll:    true,
}

// validateConfig loads and validates a single race configuration file
func validateConfig(filePath string) ValidationResult {
	result := newResult(filePath)

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var cfg engine.GameConfig
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := engine.ValidateGameConfig(&cfg); err != nil {
		result.fail("%v", err)
		return result
	}

	path, err := cfg.BuildPath()
	if err != nil {
		result.fail("%v", err)
		return result
	}

	finishes := 0
	for i := 0; i < path.Len(); i++ {
		if path.TileType(i) == engine.TileFinish {
			finishes++
			if i != path.FinishIndex() {
				result.fail("Finish tile at index %d is not the last tile (%d)", i, path.FinishIndex())
			}
		}
	}
	if path.TileType(path.FinishIndex()) != engine.TileFinish {
		result.fail("Last tile must be the finish, got %s", path.TileType(path.FinishIndex()))
	}
	if finishes > 1 {
		result.fail("Path has %d finish tiles, expected 1", finishes)
	}

	checkLayoutWidths(&result, cfg.Layout)

	checkpoints := path.Checkpoints()
	for _, cp := range checkpoints {
		if t := path.TileType(cp); t != engine.TileCheckpoint {
			result.warn("Checkpoint %d is drawn as %s", cp, t)
		}
	}
	if n := len(cfg.StageNames); n > 0 && n != len(checkpoints)+1 {
		result.warn("%d stage names for %d stages", n, len(checkpoints)+1)
	}
	if t := path.TileType(0); hazards[t] {
		result.warn("Entry tile is a hazard (%s)", t)
	}

	if result.Valid {
		result.Info = append([]string{
			fmt.Sprintf("✓ %d teams, %d tiles, %d checkpoints, %d stages",
				len(cfg.Teams), path.Len(), len(checkpoints), len(checkpoints)+1),
		}, result.Info...)
	}
	return result
}

// checkLayoutWidths flags rows of different width. Odd rows are mirrored,
// so unequal widths break the on-screen adjacency of consecutive tiles.
func checkLayoutWidths(result *ValidationResult, layout []string) {
	width := -1
	for i, row := range layout {
		n := len([]rune(row))
		if width == -1 {
			width = n
			continue
		}
		if n != width {
			result.warn("Inconsistent layout width at row %d: expected %d, got %d", i+1, width, n)
		}
	}
}

// validateQuestions checks the question bank and reports its stage coverage
func validateQuestions(filePath string) ValidationResult {
	result := newResult(filePath)

	bank, err := questions.LoadBank(filePath)
	if err != nil {
		result.fail("%v", err)
		return result
	}
	if bank.Len() == 0 {
		result.fail("Question bank is empty")
		return result
	}

	stages := bank.Stages()
	keys := make([]int, 0, len(stages))
	for s := range stages {
		keys = append(keys, s)
	}
	sort.Ints(keys)

	parts := make([]string, 0, len(keys))
	for _, s := range keys {
		parts = append(parts, fmt.Sprintf("stage %d: %d", s, stages[s]))
	}
	result.Info = append(result.Info, fmt.Sprintf("✓ %d questions (%s)", bank.Len(), strings.Join(parts, ", ")))
	return result
}

// validateRules checks the rules tuning file
func validateRules(filePath string) ValidationResult {
	result := newResult(filePath)

	rules, err := config.LoadRules(filePath)
	if err != nil {
		result.fail("%v", err)
		return result
	}
	if rules == nil {
		result.fail("Rules file not found")
		return result
	}
	if err := rules.Validate(); err != nil {
		result.fail("%v", err)
		return result
	}

	result.Info = append(result.Info, fmt.Sprintf("✓ durability E%d/T%d/S%d, combo at %d",
		rules.MaxDurability.Engine, rules.MaxDurability.Tires, rules.MaxDurability.Steering, rules.ComboThreshold))
	return result
}

// validateDir validates every file of a config directory
func validateDir(configDir string) ([]ValidationResult, error) {
	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil {
		return nil, err
	}

	var results []ValidationResult
	for _, file := range files {
		if filepath.Base(file) == config.QuestionsFile {
			results = append(results, validateQuestions(file))
			continue
		}
		results = append(results, validateConfig(file))
	}

	rulesPath := filepath.Join(configDir, config.RulesFile)
	if _, err := os.Stat(rulesPath); err == nil {
		results = append(results, validateRules(rulesPath))
	}
	return results, nil
}

// main validates a config directory, printing a concise report and exiting
// with non-zero status if any file is invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	results, err := validateDir(configDir)
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(results) == 0 {
		fmt.Printf("No configuration files found in %s\n", configDir)
		os.Exit(1)
	}

	allValid := true
	for _, result := range results {
		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Println("  ❌ " + err)
			}
		}
		for _, info := range result.Info {
			fmt.Println("  " + info)
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}
