package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// Profile selects what a run analyses: the years [StartYear, EndYear) and
// the venues tracked by the per-venue counting pass.
type Profile struct {
	StartYear int      `yaml:"start_year" toml:"start_year"`
	EndYear   int      `yaml:"end_year" toml:"end_year"`
	Venues    []string `yaml:"venues" toml:"venues"`
}

// DefaultProfile is the conference set the project was built around.
func DefaultProfile() Profile {
	return Profile{
		StartYear: 2010,
		EndYear:   2025,
		Venues:    []string{"AAAI", "CVPR", "ICML", "ICCV", "IJCAI"},
	}
}

// Validate checks the profile is usable.
func (p Profile) Validate() error {
	if p.EndYear <= p.StartYear {
		return fmt.Errorf("profile: end_year %d must be after start_year %d", p.EndYear, p.StartYear)
	}
	if len(p.Venues) == 0 {
		return errors.New("profile: at least one venue required")
	}
	return nil
}

// Years lists every year in [StartYear, EndYear).
func (p Profile) Years() []int {
	if p.EndYear <= p.StartYear {
		return nil
	}
	years := make([]int, 0, p.EndYear-p.StartYear)
	for y := p.StartYear; y < p.EndYear; y++ {
		years = append(years, y)
	}
	return years
}

// LoadProfile reads a profile, choosing the decoder by file extension.
// An empty path returns DefaultProfile.
func LoadProfile(path string) (Profile, error) {
	if path == "" {
		return DefaultProfile(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to read profile: %w", err)
	}

	var p Profile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &p)
	case ".toml":
		err = toml.Unmarshal(data, &p)
	default:
		return Profile{}, fmt.Errorf("unsupported profile format %q", ext)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}

	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}
