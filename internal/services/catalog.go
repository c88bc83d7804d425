package services

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/opencivics/civicassist/internal/db"
	"github.com/opencivics/civicassist/pkg/models"
)

//go:embed seed.yaml
var defaultCatalog []byte

const seedVersionKey = "services_seed_version"

// catalogFile is the on-disk YAML shape of a services directory.
type catalogFile struct {
	Version  int              `yaml:"version"`
	Services []models.Service `yaml:"services"`
}

// Catalog seeds the services directory table from YAML. The embedded
// defaults ship with the binary; deployments can point at their own
// catalog file instead.
type Catalog struct {
	db *db.DB
}

// NewCatalog creates a catalog bound to the portal database.
func NewCatalog(database *db.DB) *Catalog {
	return &Catalog{db: database}
}

// LoadFromFile reads and parses a services YAML file.
func LoadFromFile(path string) ([]models.Service, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read services file: %w", err)
	}
	return parseCatalog(data)
}

func parseCatalog(data []byte) ([]models.Service, int, error) {
	var doc catalogFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, 0, fmt.Errorf("failed to parse services YAML: %w", err)
	}
	if len(doc.Services) == 0 {
		return nil, 0, fmt.Errorf("services catalog is empty")
	}
	for _, svc := range doc.Services {
		if svc.Name == "" {
			return nil, 0, fmt.Errorf("services catalog has an entry without a name")
		}
	}
	return doc.Services, doc.Version, nil
}

// Seed imports the catalog when the stored seed version is older than
// the catalog's. An empty path seeds from the embedded defaults.
func (c *Catalog) Seed(path string) error {
	var (
		services []models.Service
		version  int
		err      error
	)
	if path != "" {
		services, version, err = LoadFromFile(path)
	} else {
		services, version, err = parseCatalog(defaultCatalog)
	}
	if err != nil {
		return err
	}

	stored, err := c.db.GetSetting(seedVersionKey)
	if err != nil {
		return err
	}
	if stored != "" {
		storedVersion, err := strconv.Atoi(stored)
		if err == nil && storedVersion >= version {
			return nil
		}
	}

	if err := c.db.ReplaceServices(services); err != nil {
		return err
	}
	return c.db.SetSetting(seedVersionKey, strconv.Itoa(version))
}
