package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/mcp-training/triviarace/game/engine"
	"github.com/wricardo/mcp-training/triviarace/game/questions"
	"github.com/wricardo/mcp-training/triviarace/game/service"
)

const (
	// RulesFile is the optional rule tuning file inside the config directory
	RulesFile = "rules.yaml"
	// QuestionsFile is the question bank inside the config directory
	QuestionsFile = "questions.json"
)

var (
	ErrConfigNotFound = service.ErrConfigNotFound
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// Manager handles game configuration loading and caching
type Manager struct {
	configDir     string
	defaultConfig *engine.GameConfig
	configs       map[string]*engine.GameConfig
	rules         *engine.Rules
	bank          *questions.Bank
	mu            sync.RWMutex
}

// NewManager creates a new configuration manager
func NewManager(configDir string) (*Manager, error) {
	// Ensure config directory exists
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.GameConfig),
	}

	rules, err := LoadRules(filepath.Join(configDir, RulesFile))
	if err != nil {
		return nil, err
	}
	m.rules = rules

	bank, err := loadBank(filepath.Join(configDir, QuestionsFile))
	if err != nil {
		return nil, err
	}
	m.bank = bank

	// Load default config
	if err := m.loadDefaultConfig(); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	return m, nil
}

// LoadRules reads a rules tuning file. Fields absent from the file keep
// their default values. A missing file yields nil rules and no error.
func LoadRules(path string) (*engine.Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	rules := engine.DefaultRules()
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, filepath.Base(path), err)
	}
	return &rules, nil
}

func loadBank(path string) (*questions.Bank, error) {
	bank, err := questions.LoadBank(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return questions.Fallback(), nil
		}
		return nil, err
	}
	if bank.Len() == 0 {
		return questions.Fallback(), nil
	}
	return bank, nil
}

// LoadConfig loads a configuration by name
func (m *Manager) LoadConfig(name string) (*engine.GameConfig, error) {
	name = strings.TrimSuffix(name, ".json")

	m.mu.RLock()
	// Check cache first
	if config, exists := m.configs[name]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	// Load from file
	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if config, exists := m.configs[name]; exists {
		return config, nil
	}

	configPath := filepath.Join(m.configDir, name+".json")

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse config
	var config engine.GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if config.Rules == nil && m.rules != nil {
		rules := *m.rules
		config.Rules = &rules
	}

	// Validate config
	if err := engine.ValidateGameConfig(&config); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	// Cache the config
	m.configs[name] = &config
	return &config, nil
}

// ListConfigs returns information about all available configurations
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var configs []*service.ConfigInfo

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") || entry.Name() == QuestionsFile {
			continue
		}

		// Remove .json extension for config name
		name := strings.TrimSuffix(entry.Name(), ".json")

		// Try to load the config to get details
		config, err := m.LoadConfig(name)
		if err != nil {
			// Skip invalid configs
			continue
		}

		configs = append(configs, describe(entry.Name(), name, config))
	}

	return configs, nil
}

func describe(filename, id string, config *engine.GameConfig) *service.ConfigInfo {
	info := &service.ConfigInfo{
		Filename:    filename,
		ConfigID:    id,
		Name:        config.Name,
		Description: config.Description,
		Teams:       len(config.Teams),
	}
	if path, err := config.BuildPath(); err == nil {
		info.PathLength = path.Len()
		info.Checkpoints = len(path.Checkpoints())
		info.Stages = info.Checkpoints + 1
	}
	return info
}

// GetDefault returns the default configuration
func (m *Manager) GetDefault() *engine.GameConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// SetDefault sets the default configuration by name
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = config
	return nil
}

// Rules returns the rule override from rules.yaml, or nil
func (m *Manager) Rules() *engine.Rules {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rules
}

// Questions returns the question bank of the config directory. The built-in
// fallback bank is used when the directory has none.
func (m *Manager) Questions() *questions.Bank {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bank
}

// RefreshCache reloads rules, questions and configurations from disk
func (m *Manager) RefreshCache() error {
	rules, err := LoadRules(filepath.Join(m.configDir, RulesFile))
	if err != nil {
		return err
	}
	bank, err := loadBank(filepath.Join(m.configDir, QuestionsFile))
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.configs = make(map[string]*engine.GameConfig)
	m.rules = rules
	m.bank = bank
	m.mu.Unlock()

	// Reload default config
	return m.loadDefaultConfig()
}

// loadDefaultConfig loads the default configuration
func (m *Manager) loadDefaultConfig() error {
	// Try to load classic.json as default
	config, err := m.LoadConfig("classic")
	if err != nil {
		// Try to load the first available config
		configs, listErr := m.ListConfigs()
		if listErr != nil || len(configs) == 0 {
			config = m.createMinimalConfig()
		} else if config, err = m.LoadConfig(configs[0].ConfigID); err != nil {
			config = m.createMinimalConfig()
		}
	}

	m.mu.Lock()
	m.defaultConfig = config
	m.mu.Unlock()
	return nil
}

// SaveConfig saves a configuration to disk
func (m *Manager) SaveConfig(name string, config *engine.GameConfig) error {
	// Validate config before saving
	if err := engine.ValidateGameConfig(config); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	name = strings.TrimSuffix(name, ".json")
	if name == "" || strings.ContainsAny(name, `/\`) || name == strings.TrimSuffix(QuestionsFile, ".json") {
		return fmt.Errorf("%w: bad config name %q", ErrInvalidConfig, name)
	}

	configPath := filepath.Join(m.configDir, name+".json")

	// Marshal config to JSON with indentation
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	// Update cache
	m.mu.Lock()
	m.configs[name] = config
	m.mu.Unlock()

	return nil
}

// createMinimalConfig returns the built-in classic race with the rules
// override applied
func (m *Manager) createMinimalConfig() *engine.GameConfig {
	config := engine.DefaultGameConfig()
	m.mu.RLock()
	if m.rules != nil {
		rules := *m.rules
		config.Rules = &rules
	}
	m.mu.RUnlock()
	return config
}
