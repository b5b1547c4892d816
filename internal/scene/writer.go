package scene

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk layout of a scene catalog.
type catalogFile struct {
	Scenes map[string]Params `yaml:"scenes"`
}

// WriteCatalog writes a catalog to a YAML file
func WriteCatalog(c *Catalog, path string) error {
	data, err := yaml.Marshal(catalogFile{Scenes: c.scenes})
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadCatalog reads a catalog from a YAML file
func ReadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse scene catalog %s: %w", path, err)
	}

	for name, p := range file.Scenes {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("scene %q: %w", name, err)
		}
	}

	return newCatalog(file.Scenes), nil
}
