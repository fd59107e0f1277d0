package common

import (
	"errors"
	"fmt"

	secretsInfra "github.com/Ethernal-Tech/cardano-infrastructure/secrets"
	secretsInfraHelper "github.com/Ethernal-Tech/cardano-infrastructure/secrets/helper"
)

// GetSecretsManager resolves the secrets manager from a config file or, when insecureLocalStore is set,
// from a local data directory
func GetSecretsManager(
	dataPath, configPath string, insecureLocalStore bool,
) (secretsInfra.SecretsManager, error) {
	if configPath != "" {
		secretsConfig, err := secretsInfra.ReadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid secrets configuration: %w", err)
		}

		return secretsInfraHelper.CreateSecretsManager(secretsConfig)
	}

	// local file system storage is meant for development setups only
	if !insecureLocalStore {
		return nil, errors.New("insecure local storage not supported")
	}

	if dataPath == "" {
		return nil, errors.New("secrets data path not specified")
	}

	return secretsInfraHelper.CreateSecretsManager(&secretsInfra.SecretsManagerConfig{
		Path: dataPath,
		Type: secretsInfra.Local,
	})
}
