package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario describes one load generation run.
type Scenario struct {
	BaseURL       string        `yaml:"base_url"`
	Iterations    int           `yaml:"iterations"`
	Concurrency   int           `yaml:"concurrency"`
	MockErrorRate int           `yaml:"mock_error_rate"`
	ThinkTime     time.Duration `yaml:"think_time"`
	Pages         []string      `yaml:"pages"`
}

func defaultScenario() Scenario {
	return Scenario{
		BaseURL:       "http://localhost:8080",
		Iterations:    20,
		Concurrency:   4,
		MockErrorRate: 30,
		ThinkTime:     100 * time.Millisecond,
		Pages:         []string{"/", "/students"},
	}
}

// loadScenario reads a YAML scenario file over the defaults. An empty path
// returns the defaults.
func loadScenario(path string) (Scenario, error) {
	sc := defaultScenario()
	if path == "" {
		return sc, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario: %w", err)
	}
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return Scenario{}, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := sc.validate(); err != nil {
		return Scenario{}, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return sc, nil
}

func (s Scenario) validate() error {
	var errs []error
	if strings.TrimSpace(s.BaseURL) == "" {
		errs = append(errs, errors.New("base_url is required"))
	}
	if s.Iterations <= 0 {
		errs = append(errs, fmt.Errorf("iterations must be positive, got %d", s.Iterations))
	}
	if s.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("concurrency must be positive, got %d", s.Concurrency))
	}
	if s.MockErrorRate < 0 || s.MockErrorRate > 100 {
		errs = append(errs, fmt.Errorf("mock_error_rate must be within 0-100, got %d", s.MockErrorRate))
	}
	if s.ThinkTime < 0 {
		errs = append(errs, fmt.Errorf("think_time must not be negative, got %s", s.ThinkTime))
	}
	return errors.Join(errs...)
}
