package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

const validConfig = `{
	"name": "test",
	"description": "Test configuration",
	"teams": [{"name": "Red"}, {"name": "Blue"}],
	"layout": ["..M.C", "..2.E"],
	"stage_names": ["Out", "Back"],
	"messages": {"welcome": "Go!", "victory": "%s wins!"}
}`

func TestValidateConfig_ValidConfig(t *testing.T) {
	path := writeFile(t, t.TempDir(), "test.json", validConfig)

	result := validateConfig(path)
	if !result.Valid {
		t.Fatalf("Expected valid config, but got errors: %v", result.Errors)
	}
	if result.File != "test.json" {
		t.Errorf("Expected file name test.json, got %s", result.File)
	}
	if len(result.Info) == 0 || !strings.Contains(result.Info[0], "2 teams, 10 tiles, 1 checkpoints, 2 stages") {
		t.Errorf("Unexpected summary %v", result.Info)
	}
}

func TestValidateConfig_ProjectConfigs(t *testing.T) {
	for _, name := range []string{"classic.json", "sprint.json", "gauntlet.json"} {
		t.Run(name, func(t *testing.T) {
			result := validateConfig(filepath.Join("..", "configs", name))
			if !result.Valid {
				t.Errorf("Expected %s to be valid, got %v", name, result.Errors)
			}
			for _, info := range result.Info {
				if strings.HasPrefix(info, "⚠") {
					t.Errorf("Unexpected warning for %s: %s", name, info)
				}
			}
		})
	}
}

func TestValidateConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "invalid json",
			content: `{"name": "test", invalid json}`,
			wantErr: "Invalid JSON",
		},
		{
			name:    "unknown field",
			content: `{"name": "test", "grid_size": 5, "teams": [{"name": "A"}, {"name": "B"}], "layout": ["..E"]}`,
			wantErr: "unknown field",
		},
		{
			name:    "one team",
			content: `{"name": "test", "teams": [{"name": "A"}], "layout": ["..E"]}`,
			wantErr: "teams must number",
		},
		{
			name:    "unknown layout code",
			content: `{"name": "test", "teams": [{"name": "A"}, {"name": "B"}], "layout": ["..Q.E"]}`,
			wantErr: "unknown layout code",
		},
		{
			name:    "finish not last",
			content: `{"name": "test", "teams": [{"name": "A"}, {"name": "B"}], "layout": [".E.."]}`,
			wantErr: "is not the last tile",
		},
		{
			name:    "no finish",
			content: `{"name": "test", "teams": [{"name": "A"}, {"name": "B"}], "layout": ["...."]}`,
			wantErr: "Last tile must be the finish",
		},
		{
			name:    "victory without placeholder",
			content: `{"name": "test", "teams": [{"name": "A"}, {"name": "B"}], "layout": ["...E"], "messages": {"victory": "Done"}}`,
			wantErr: "messages.victory",
		},
		{
			name:    "checkpoint out of range",
			content: `{"name": "test", "teams": [{"name": "A"}, {"name": "B"}], "layout": ["...E"], "checkpoints": [9]}`,
			wantErr: "checkpoint 9 outside path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "bad.json", tt.content)

			result := validateConfig(path)
			if result.Valid {
				t.Fatal("Expected invalid config")
			}
			if !strings.Contains(strings.Join(result.Errors, "\n"), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, result.Errors)
			}
		})
	}
}

func TestValidateConfig_MissingFile(t *testing.T) {
	result := validateConfig("/non/existent/file.json")

	if result.Valid {
		t.Error("Expected missing file to be invalid")
	}
	if len(result.Errors) == 0 || !strings.Contains(result.Errors[0], "Failed to read file") {
		t.Errorf("Expected 'Failed to read file' error, got: %v", result.Errors)
	}
}

func TestValidateConfig_Warnings(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantWarn string
	}{
		{
			name:     "ragged rows",
			content:  `{"name": "t", "teams": [{"name": "A"}, {"name": "B"}], "layout": ["....", "..E"]}`,
			wantWarn: "Inconsistent layout width at row 2",
		},
		{
			name:     "stage names mismatch",
			content:  `{"name": "t", "teams": [{"name": "A"}, {"name": "B"}], "layout": [".C.E"], "stage_names": ["Only"]}`,
			wantWarn: "1 stage names for 2 stages",
		},
		{
			name:     "hazard entry",
			content:  `{"name": "t", "teams": [{"name": "A"}, {"name": "B"}], "layout": ["M..E"]}`,
			wantWarn: "Entry tile is a hazard (mine)",
		},
		{
			name:     "plain checkpoint tile",
			content:  `{"name": "t", "teams": [{"name": "A"}, {"name": "B"}], "layout": ["...E"], "checkpoints": [1]}`,
			wantWarn: "Checkpoint 1 is drawn as normal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "warn.json", tt.content)

			result := validateConfig(path)
			if !result.Valid {
				t.Fatalf("Warnings should not invalidate the config: %v", result.Errors)
			}
			if !strings.Contains(strings.Join(result.Info, "\n"), tt.wantWarn) {
				t.Errorf("Expected warning containing %q, got %v", tt.wantWarn, result.Info)
			}
		})
	}
}

func TestValidateQuestions(t *testing.T) {
	dir := t.TempDir()

	valid := writeFile(t, dir, "questions.json", `{"questions": [
		{"id": 1, "question": "2+2?", "options": ["A. 3", "B. 4"], "answer": "B"},
		{"id": 11, "question": "Capital of Italy?", "options": ["A. Rome", "B. Milan"], "answer": "A"}
	]}`)
	result := validateQuestions(valid)
	if !result.Valid {
		t.Fatalf("Expected valid bank, got %v", result.Errors)
	}
	if !strings.Contains(result.Info[0], "2 questions (stage 1: 1, stage 2: 1)") {
		t.Errorf("Unexpected summary %v", result.Info)
	}

	empty := writeFile(t, dir, "empty.json", `{"questions": []}`)
	if validateQuestions(empty).Valid {
		t.Error("Expected empty bank to be invalid")
	}

	project := validateQuestions(filepath.Join("..", "configs", "questions.json"))
	if !project.Valid {
		t.Errorf("Expected project question bank to be valid, got %v", project.Errors)
	}
}

func TestValidateRules(t *testing.T) {
	dir := t.TempDir()

	valid := writeFile(t, dir, "rules.yaml", "combo_threshold: 2\n")
	result := validateRules(valid)
	if !result.Valid {
		t.Fatalf("Expected valid rules, got %v", result.Errors)
	}
	if !strings.Contains(result.Info[0], "combo at 2") {
		t.Errorf("Unexpected summary %v", result.Info)
	}

	invalid := writeFile(t, dir, "bad.yaml", "max_durability:\n  engine: 0\n")
	if validateRules(invalid).Valid {
		t.Error("Expected zero durability to be invalid")
	}

	if validateRules(filepath.Join(dir, "missing.yaml")).Valid {
		t.Error("Expected missing rules file to be invalid")
	}
}

func TestValidateDir(t *testing.T) {
	results, err := validateDir(filepath.Join("..", "configs"))
	if err != nil {
		t.Fatalf("validateDir() error = %v", err)
	}

	files := make(map[string]bool)
	for _, r := range results {
		files[r.File] = true
		if !r.Valid {
			t.Errorf("%s: %v", r.File, r.Errors)
		}
	}
	for _, want := range []string{"classic.json", "questions.json", "rules.yaml"} {
		if !files[want] {
			t.Errorf("Expected %s to be validated", want)
		}
	}
}
