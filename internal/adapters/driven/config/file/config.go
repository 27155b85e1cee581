package file

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/radar-trace/internal/core/domain"
)

// LoadConfig reads path into a domain.Config.
// Keys missing from the file keep their domain.DefaultConfig value; a missing
// file yields the defaults.
func LoadConfig(path string) (domain.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := domain.DefaultConfig()
			return cfg, cfg.Validate()
		}
		return domain.Config{}, fmt.Errorf("read config: %w", err)
	}
	return decodeConfig(data)
}

func decodeConfig(data []byte) (domain.Config, error) {
	cfg := domain.DefaultConfig()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return domain.Config{}, fmt.Errorf("%w: decode config: %v", domain.ErrInvalidInput, err)
	}
	if err := cfg.Validate(); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}
