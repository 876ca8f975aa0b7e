package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Kondomino/kondo-movie-sub001/internal/edl"
)

// Movie holds the per-job preferences of one render.
type Movie struct {
	UserID        string `yaml:"user_id"`
	AgentPresents bool   `yaml:"agent_presents"`
	AgentName     string `yaml:"agent_name"`
	ListingURL    string `yaml:"listing_url"`
	// Orientation overrides the EDL orientation when set.
	Orientation edl.Orientation `yaml:"orientation"`

	Property  Property  `yaml:"property"`

	EndTitles EndTitles `yaml:"end_titles"`
	Occasion  Occasion  `yaml:"occasion"`
	Music     Music     `yaml:"music"`
	Narration Narration `yaml:"narration"`

	Watermark bool `yaml:"watermark"`
	Captions  bool `yaml:"captions"`
}

type Property struct {
	Address  string `yaml:"address"`
	Location string `yaml:"location"`
}

type EndTitles struct {
	Enabled   bool   `yaml:"enabled"`
	MainTitle string `yaml:"main_title"`
	SubTitle  string `yaml:"sub_title"`
}

type Occasion struct {
	Text     string `yaml:"text"`
	Subtitle string `yaml:"subtitle"`
}

type Music struct {
	Enabled bool `yaml:"enabled"`
	// Track overrides the EDL soundtrack.
	Track string `yaml:"track"`
}

type Narration struct {
	Enabled bool   `yaml:"enabled"`
	Script  string `yaml:"script"`
	Voice   string `yaml:"voice"`
}

// LoadMovie reads job preferences from a YAML file.
func LoadMovie(path string) (*Movie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Movie
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
