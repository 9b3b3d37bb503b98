package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/termfolio/pkg/domain/model"
)

// ContentFile is the TOML document listing portfolio content to ingest
type ContentFile struct {
	Contents []*model.PortfolioContent `toml:"content"`
}

// Validate checks every entry and rejects duplicate IDs
func (f *ContentFile) Validate() error {
	if len(f.Contents) == 0 {
		return goerr.Wrap(ErrInvalidConfig, "no [[content]] entries found")
	}

	ids := make(map[string]bool)
	for i, c := range f.Contents {
		if err := c.Validate(); err != nil {
			return goerr.Wrap(err, "invalid content", goerr.V(ContentIndexKey, i), goerr.V(ContentIDKey, c.ID))
		}
		if c.ID == "" {
			continue
		}
		if ids[c.ID] {
			return goerr.Wrap(ErrDuplicateContentID, "content IDs must be unique", goerr.V(ContentIDKey, c.ID))
		}
		ids[c.ID] = true
	}
	return nil
}

// LoadContentFile reads and validates portfolio content from a TOML file
func LoadContentFile(path string) ([]*model.PortfolioContent, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(ErrConfigNotFound, "content file not found", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read content file", goerr.V(ConfigPathKey, path))
	}

	var file ContentFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML content file", goerr.V(ConfigPathKey, path))
	}

	if err := file.Validate(); err != nil {
		return nil, goerr.Wrap(err, "content validation failed", goerr.V(ConfigPathKey, path))
	}

	return file.Contents, nil
}
