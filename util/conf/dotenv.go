package conf

import (
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/dotenv"
)

// LoadEnvFile reads KEY=VALUE pairs from a dotenv file.
func LoadEnvFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file: %w", err)
	}

	values, err := dotenv.Parser().Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse env file %s: %w", path, err)
	}

	env := make(map[string]string, len(values))
	for key, value := range values {
		env[key] = fmt.Sprint(value)
	}

	return env, nil
}
