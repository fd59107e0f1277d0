package common

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func LoadJSON[TReturn any](path string) (*TReturn, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %v. error: %w", path, err)
	}

	defer f.Close()

	var value TReturn

	if err := json.NewDecoder(f).Decode(&value); err != nil {
		return nil, fmt.Errorf("failed to decode %v. error: %w", path, err)
	}

	return &value, nil
}

// LoadConfig loads config from configPath or, when empty, from (prefix)_config.json
// next to the executable
func LoadConfig[TReturn any](configPath string, configPrefix string) (*TReturn, error) {
	if configPath == "" {
		ex, err := os.Executable()
		if err != nil {
			return nil, err
		}

		fileName := "config.json"
		if strings.TrimSpace(configPrefix) != "" {
			fileName = strings.Join([]string{configPrefix, fileName}, "_")
		}

		configPath = filepath.Join(filepath.Dir(ex), fileName)
	}

	return LoadJSON[TReturn](configPath)
}
