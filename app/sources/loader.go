package sources

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/lysyi3m/content-comb/app/content"
	"github.com/lysyi3m/content-comb/app/database"
)

// Seed is one declarative source registration, one YAML file per source.
type Seed struct {
	UserID          string `yaml:"user_id"`
	Kind            string `yaml:"kind"`
	URL             string `yaml:"url"`
	Title           string `yaml:"title"`
	Category        string `yaml:"category"`
	RefreshInterval int    `yaml:"refresh_interval"` // seconds
}

type Loader struct {
	dir string
}

func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// LoadAll reads every YAML file in the seed directory. A missing directory
// is not an error; running without seeds is a valid setup.
func (l *Loader) LoadAll() ([]Seed, error) {
	if _, err := os.Stat(l.dir); os.IsNotExist(err) {
		return nil, nil
	}

	files, err := filepath.Glob(filepath.Join(l.dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YAML files: %w", err)
	}
	ymlFiles, err := filepath.Glob(filepath.Join(l.dir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}
	files = append(files, ymlFiles...)

	var seeds []Seed
	for _, file := range files {
		seed, err := l.loadFile(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}
		seeds = append(seeds, seed)
		slog.Debug("Loaded source seed", "file", file, "url", seed.URL)
	}

	return seeds, nil
}

func (l *Loader) loadFile(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("failed to read file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return Seed{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if seed.RefreshInterval == 0 {
		seed.RefreshInterval = 3600
	}
	if seed.UserID == "" {
		seed.UserID = "default"
	}

	if err := validate(seed); err != nil {
		return Seed{}, err
	}

	return seed, nil
}

func validate(seed Seed) error {
	if seed.URL == "" {
		return fmt.Errorf("source URL is required")
	}
	if _, err := content.ParseKind(seed.Kind); err != nil {
		return err
	}
	if seed.RefreshInterval < 0 {
		return fmt.Errorf("refresh interval must be non-negative")
	}
	return nil
}

// Sync registers every seed, updating already known sources in place.
// Re-running it is harmless.
func Sync(seeds []Seed, repo database.SourceRepository) error {
	for _, seed := range seeds {
		_, err := repo.Upsert(database.Source{
			UserID:          seed.UserID,
			Kind:            seed.Kind,
			URL:             seed.URL,
			Title:           seed.Title,
			Category:        seed.Category,
			RefreshInterval: seed.RefreshInterval,
		})
		if err != nil {
			return fmt.Errorf("failed to register source %s: %w", seed.URL, err)
		}
	}

	slog.Info("Source seeds synced", "count", len(seeds))
	return nil
}
