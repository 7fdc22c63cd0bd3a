package config

import (
	"encoding/json"
	"io"

	"gitlab.com/tozd/go/errors"
)

type Config struct {
	// DefinitionFile is the basename of the files holding targets.
	DefinitionFile string `json:"definitionFile"`
	// IgnoreDirs are directory names never scanned.
	IgnoreDirs          []string `json:"ignoreDirs"`
	ScanWorkers         int      `json:"scanWorkers"`
	DiagnosticWorkers   int      `json:"diagnosticWorkers"`
	ParserPoolSize      int      `json:"parserPoolSize"`
	DisabledDiagnostics []string `json:"disabledDiagnostics"`
}

var defaultConfig = Config{
	DefinitionFile:    "Earthfile",
	IgnoreDirs:        []string{".git", "node_modules"},
	ScanWorkers:       4,
	DiagnosticWorkers: 4,
	ParserPoolSize:    4,
}

// Default returns the configuration used when the client sends none.
func Default() Config {
	cfg := defaultConfig
	cfg.IgnoreDirs = append([]string(nil), defaultConfig.IgnoreDirs...)
	return cfg
}

// Load overlays v, usually the client initialization options, on the
// defaults. Only the fields present in v are overwritten.
func Load(v any) (Config, error) {
	cfg := Default()
	if v == nil {
		return cfg, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return Config{}, errors.Errorf("failed to marshal source: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Errorf("failed to unmarshal into Config: %w", err)
	}

	return cfg.validate()
}

// LoadFromJSON reads JSON from r into a Config.
func LoadFromJSON(r io.Reader) (Config, error) {
	cfg := Default()

	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.WithStack(err)
	}

	return cfg.validate()
}

func (c Config) validate() (Config, error) {
	if c.DefinitionFile == "" {
		return Config{}, errors.New("definitionFile must not be empty")
	}
	if c.ScanWorkers < 1 {
		c.ScanWorkers = defaultConfig.ScanWorkers
	}
	if c.DiagnosticWorkers < 1 {
		c.DiagnosticWorkers = defaultConfig.DiagnosticWorkers
	}
	if c.ParserPoolSize < 1 {
		c.ParserPoolSize = defaultConfig.ParserPoolSize
	}
	return c, nil
}
