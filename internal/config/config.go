package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"notecal/internal/encode"
)

// Config is the top-level application configuration, consumed read-only by
// the extraction core. There is no process-wide mutable configuration: the
// loaded value is passed explicitly into every entry point.
type Config struct {
	// EventTags are the marker names that trigger parsing.
	EventTags []string `yaml:"event_tags" json:"event_tags"`

	// ExcludePredicates names fields that, when true on a record, drop it
	// before serialization (e.g. "done").
	ExcludePredicates []string `yaml:"exclude_predicates" json:"exclude_predicates"`

	// PathExcludes are glob patterns filtering candidate filenames,
	// independent of event-tag matching.
	PathExcludes []string `yaml:"path_excludes" json:"path_excludes"`

	// Delimiter is the single character separating title from description
	// in trailing content.
	Delimiter string `yaml:"delimiter" json:"delimiter"`

	// DefaultDurationMinutes is applied to "due" values that carry a
	// time-of-day component.
	DefaultDurationMinutes int `yaml:"default_duration_minutes" json:"default_duration_minutes"`

	// DatelessEventsToday dates events without a start on today's calendar
	// date in the calendar output instead of omitting them.
	DatelessEventsToday bool `yaml:"dateless_events_today" json:"dateless_events_today"`

	// LogLevel: "debug", "info", "warn" or "error".
	LogLevel string `yaml:"log_level" json:"log_level"`

	// The three output templates. Placeholder names are validated at load.
	CalendarTitleTemplate       string `yaml:"calendar_title_template" json:"calendar_title_template"`
	CalendarDescriptionTemplate string `yaml:"calendar_description_template" json:"calendar_description_template"`
	ReportLineTemplate          string `yaml:"report_line_template" json:"report_line_template"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		EventTags:              []string{"#event", "#todo", "#vtodo", "#vevent"},
		ExcludePredicates:      []string{},
		PathExcludes:           []string{},
		Delimiter:              "|",
		DefaultDurationMinutes: 30,
		DatelessEventsToday:    true,
		LogLevel:               "info",

		CalendarTitleTemplate:       "{title}",
		CalendarDescriptionTemplate: "{description}",
		ReportLineTemplate:          encode.DefaultReportTemplate,
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly.
func (c *Config) Normalize() {
	if len(c.EventTags) == 0 {
		c.EventTags = []string{"#event", "#todo", "#vtodo", "#vevent"}
	}
	if c.ExcludePredicates == nil {
		c.ExcludePredicates = []string{}
	}
	if c.PathExcludes == nil {
		c.PathExcludes = []string{}
	}
	if c.Delimiter == "" {
		c.Delimiter = "|"
	}
	if c.DefaultDurationMinutes <= 0 {
		c.DefaultDurationMinutes = 30
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.CalendarTitleTemplate == "" {
		c.CalendarTitleTemplate = "{title}"
	}
	if c.CalendarDescriptionTemplate == "" {
		c.CalendarDescriptionTemplate = "{description}"
	}
	if c.ReportLineTemplate == "" {
		c.ReportLineTemplate = encode.DefaultReportTemplate
	}
}

// Validate rejects configurations the pipeline cannot run with: a
// multi-character delimiter or a template referencing an unknown
// placeholder name. Called from Load so bad templates fail at
// configuration-load time, not per record at render time.
func (c *Config) Validate() error {
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", c.Delimiter)
	}
	for name, raw := range map[string]string{
		"calendar_title_template":       c.CalendarTitleTemplate,
		"calendar_description_template": c.CalendarDescriptionTemplate,
		"report_line_template":          c.ReportLineTemplate,
	} {
		if _, err := encode.NewTemplate(raw); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// DelimiterRune returns the delimiter as a rune. Validate guarantees the
// field holds exactly one.
func (c *Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist: create the parent directory if needed,
//     write a default config with 0600 perms, and return the defaults.
//   - If the file exists: unmarshal, normalize defaults, validate.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Return cfg with the error so the caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with 0600
// permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".notecal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
