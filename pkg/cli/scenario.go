package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario はシナリオファイルの内容
//
//	cycles: 3
//	strict: false
//	inputs:
//	  start_button: true
//	  temperature: 85.5
type Scenario struct {
	Cycles *int           `yaml:"cycles"`
	Strict *bool          `yaml:"strict"`
	Inputs map[string]any `yaml:"inputs"`
}

// LoadScenario はYAMLのシナリオファイルを読み込む
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse scenario %s: %w", path, err)
	}
	return sc, nil
}

// ParseScenario はYAMLを解析する。未知のキーはエラーにする
func ParseScenario(data []byte) (*Scenario, error) {
	sc := &Scenario{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(sc); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	if sc.Cycles != nil && *sc.Cycles < 0 {
		return nil, fmt.Errorf("cycles must be non-negative, got %d", *sc.Cycles)
	}
	for name, v := range sc.Inputs {
		switch v.(type) {
		case bool, int, float64, string:
		default:
			return nil, fmt.Errorf("input %q must be a scalar, got %T", name, v)
		}
	}
	return sc, nil
}
