package config

import (
	"context"
	"image"
	"os"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Kondomino/kondo-movie-sub001/internal/edl"
)

type contextKey string

const configKey contextKey = "config"

// Config holds application settings shared by every render job.
type Config struct {
	OutputDir    string `yaml:"output_dir"`
	TempDir      string `yaml:"temp_dir"`
	Workers      int    `yaml:"workers"`
	ShowStats    bool   `yaml:"show_stats"`
	BuildVersion string `yaml:"-"`

	Video     VideoConfig     `yaml:"video"`
	Image     ImageConfig     `yaml:"image"`
	Titles    TitlesConfig    `yaml:"titles"`
	Music     MusicConfig     `yaml:"music"`
	Narration NarrationConfig `yaml:"narration"`
	Watermark WatermarkConfig `yaml:"watermark"`
	Captions  CaptionsConfig  `yaml:"captions"`
	Fonts     FontsConfig     `yaml:"fonts"`
	Storage   StorageConfig   `yaml:"storage"`
	Redis     RedisConfig     `yaml:"redis"`
	Render    RenderConfig    `yaml:"render"`
}

type Resolution struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

func (r Resolution) Point() image.Point {
	return image.Pt(r.Width, r.Height)
}

// VideoConfig maps orientations to output resolutions (16:9, 9:16, 4:5).
type VideoConfig struct {
	Landscape Resolution `yaml:"landscape"`
	Portrait  Resolution `yaml:"portrait"`
	Hybrid    Resolution `yaml:"hybrid"`
}

type ImageConfig struct {
	ZoomRate    float64 `yaml:"zoom_rate"`
	InitialZoom float64 `yaml:"initial_zoom"`
	PanSpeed    float64 `yaml:"pan_speed"`
	DPI         int     `yaml:"dpi"`
}

type Margins struct {
	H int `yaml:"h"`
	V int `yaml:"v"`
}

type TitlesConfig struct {
	Landscape       Margins `yaml:"landscape"`
	Portrait        Margins `yaml:"portrait"`
	MainLineSize    int     `yaml:"main_line_size"`
	SubLineSize     int     `yaml:"sub_line_size"`
	Gap             int     `yaml:"gap"`
	MainFontSize    float64 `yaml:"main_font_size"`
	SubFontSize     float64 `yaml:"sub_font_size"`
	OverlayFontSize float64 `yaml:"overlay_font_size"`
	MaxLines        int     `yaml:"max_lines"`
	WordsPerLine    int     `yaml:"words_per_line"`
	// SplitCommand is an external line splitter, e.g. "splitter --max {lines}".
	SplitCommand    string  `yaml:"split_command"`
	BackgroundColor string  `yaml:"background_color"`
	FontColor       string  `yaml:"font_color"`
	PresentsText    string  `yaml:"presents_text"`
	FallbackMain    string  `yaml:"fallback_main"`
	FallbackSub     string  `yaml:"fallback_sub"`
	QRCodeSize      int     `yaml:"qr_code_size"`
}

type MusicConfig struct {
	VolumeWithVoiceover    float64 `yaml:"volume_with_voiceover"`
	VolumeWithoutVoiceover float64 `yaml:"volume_without_voiceover"`
	FadeOut                float64 `yaml:"fade_out"`
	Offset                 float64 `yaml:"offset"`
	Loop                   bool    `yaml:"loop"`
}

type NarrationConfig struct {
	StartOffset      float64       `yaml:"start_offset"`
	EndOffset        float64       `yaml:"end_offset"`
	DurationVariance float64       `yaml:"duration_variance"`
	Volume           float64       `yaml:"volume"`
	MinFactor        float64       `yaml:"min_factor"`
	MaxFactor        float64       `yaml:"max_factor"`
	TargetLUFS       float64       `yaml:"target_lufs"`
	LRA              float64       `yaml:"lra"`
	TruePeak         float64       `yaml:"true_peak"`
	FadeIn           time.Duration `yaml:"fade_in"`
	SampleRate       int           `yaml:"sample_rate"`
	Voice            string        `yaml:"voice"`
	Timeout          time.Duration `yaml:"timeout"`
}

type WatermarkConfig struct {
	Asset           string  `yaml:"asset"`
	LandscapeHeight int     `yaml:"landscape_height"`
	PortraitHeight  int     `yaml:"portrait_height"`
	OffsetX         int     `yaml:"offset_x"`
	OffsetY         int     `yaml:"offset_y"`
	Opacity         float64 `yaml:"opacity"`
}

type CaptionsConfig struct {
	FontSize              float64 `yaml:"font_size"`
	LineHeight            int     `yaml:"line_height"`
	MaxChars              int     `yaml:"max_chars"`
	Margin                int     `yaml:"margin"`
	LandscapeHeightFactor float64 `yaml:"landscape_height_factor"`
	PortraitHeightFactor  float64 `yaml:"portrait_height_factor"`
	Color                 string  `yaml:"color"`
}

// FontsConfig names font assets per text kind; empty means the embedded face.
type FontsConfig struct {
	Title     string `yaml:"title"`
	Subtitle  string `yaml:"subtitle"`
	Presents  string `yaml:"presents"`
	AgentName string `yaml:"agent_name"`
	Overlay   string `yaml:"overlay"`
	Captions  string `yaml:"captions"`
}

type StorageConfig struct {
	Backend      string        `yaml:"backend"`
	LocalDir     string        `yaml:"local_dir"`
	Bucket       string        `yaml:"bucket"`
	Region       string        `yaml:"region"`
	Profile      string        `yaml:"profile"`
	UsePathStyle bool          `yaml:"use_path_style"`
	Timeout      time.Duration `yaml:"timeout"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

type RenderConfig struct {
	Encoder      string        `yaml:"encoder"`
	Quality      int           `yaml:"quality"`
	AudioCodec   string        `yaml:"audio_codec"`
	AudioBitrate string        `yaml:"audio_bitrate"`
	Timeout      time.Duration `yaml:"timeout"`
}

// Resolution returns the output size for an orientation.
func (c *Config) Resolution(o edl.Orientation) image.Point {
	switch o {
	case edl.Portrait:
		return c.Video.Portrait.Point()
	case edl.Hybrid:
		return c.Video.Hybrid.Point()
	}
	return c.Video.Landscape.Point()
}

// Load reads configuration from file over the defaults. An empty or missing path yields defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a fully populated configuration.
func Default() *Config {
	return &Config{
		OutputDir: "output",
		Workers:   runtime.NumCPU(),
		Video: VideoConfig{
			Landscape: Resolution{1920, 1080},
			Portrait:  Resolution{1080, 1920},
			Hybrid:    Resolution{1080, 1350},
		},
		Image: ImageConfig{
			ZoomRate:    0.04,
			InitialZoom: 0.2,
			PanSpeed:    1.0,
			DPI:         150,
		},
		Titles: TitlesConfig{
			Landscape:       Margins{H: 200, V: 150},
			Portrait:        Margins{H: 90, V: 300},
			MainLineSize:    96,
			SubLineSize:     64,
			Gap:             40,
			MainFontSize:    72,
			SubFontSize:     44,
			OverlayFontSize: 56,
			MaxLines:        3,
			WordsPerLine:    3,
			BackgroundColor: "#000000",
			FontColor:       "#FFFFFF",
			PresentsText:    "PRESENTS",
			FallbackMain:    "PROPERTY ADDRESS",
			FallbackSub:     "PROPERTY DETAILS",
			QRCodeSize:      220,
		},
		Music: MusicConfig{
			VolumeWithVoiceover:    0.25,
			VolumeWithoutVoiceover: 0.8,
			FadeOut:                3,
			Loop:                   true,
		},
		Narration: NarrationConfig{
			StartOffset:      1.0,
			EndOffset:        1.5,
			DurationVariance: 2.0,
			Volume:           1.0,
			MinFactor:        0.9,
			MaxFactor:        1.15,
			TargetLUFS:       -23,
			LRA:              7,
			TruePeak:         -1,
			FadeIn:           10 * time.Millisecond,
			SampleRate:       24000,
			Voice:            "alloy",
			Timeout:          60 * time.Second,
		},
		Watermark: WatermarkConfig{
			Asset:           "templates/watermark.png",
			LandscapeHeight: 60,
			PortraitHeight:  80,
			OffsetX:         40,
			OffsetY:         40,
			Opacity:         0.6,
		},
		Captions: CaptionsConfig{
			FontSize:              42,
			LineHeight:            54,
			MaxChars:              42,
			Margin:                80,
			LandscapeHeightFactor: 0.85,
			PortraitHeightFactor:  0.75,
			Color:                 "#FFFFFF",
		},
		Storage: StorageConfig{
			Backend:  "local",
			LocalDir: "assets",
			Timeout:  30 * time.Second,
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			KeyPrefix: "edl:",
		},
		Render: RenderConfig{
			Encoder:      "auto",
			AudioCodec:   "aac",
			AudioBitrate: "192k",
			Timeout:      30 * time.Minute,
		},
	}
}

// ApplyEnv overrides endpoints and secrets from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = n
		}
	}
	if v := os.Getenv("ASSETS_BUCKET"); v != "" {
		c.Storage.Bucket = v
		c.Storage.Backend = "s3"
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		c.Storage.Region = v
	}
	if v := os.Getenv("AWS_PROFILE"); v != "" {
		c.Storage.Profile = v
	}
	if v := os.Getenv("MOVIEMAKER_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
}

// WithConfig stores cfg in ctx.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext returns the config stored in ctx or the defaults.
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return Default()
}
