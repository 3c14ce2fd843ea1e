package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/panorama/internal/foundation/errors"
)

// DefaultPath is the configuration file looked up when no --config flag is given.
const DefaultPath = "panorama.yaml"

// Config is the site configuration. It is loaded once at start-up and treated
// as read-only afterwards.
type Config struct {
	Target       Target           `yaml:"target"`
	Head         HeadConfig       `yaml:"head"`
	CSS          []string         `yaml:"css"`
	Plugins      []Plugin         `yaml:"plugins"`
	Components   bool             `yaml:"components"`
	BuildModules []Module         `yaml:"build_modules"`
	Modules      []Module         `yaml:"modules"`
	Content      ContentConfig    `yaml:"content"`
	Theme        ThemeConfig      `yaml:"theme"`
	PurgeCSS     PurgeCSSConfig   `yaml:"purge_css"`
	Build        BuildConfig      `yaml:"build"`
	Render       RenderConfig     `yaml:"render"`
	Router       RouterConfig     `yaml:"router"`
	Generate     GenerateConfig   `yaml:"generate"`
	Monitoring   MonitoringConfig `yaml:"monitoring"`
}

// Target selects how the site is produced. Only static output is generated;
// "server" is accepted so existing configurations load.
type Target string

const (
	TargetStatic Target = "static"
	TargetServer Target = "server"
)

// HeadConfig holds the global document head.
type HeadConfig struct {
	TitleTemplate string              `yaml:"title_template"`
	Title         string              `yaml:"title"`
	Meta          []map[string]string `yaml:"meta"`
	Link          []map[string]string `yaml:"link"`
}

// ContentConfig locates the content documents.
type ContentConfig struct {
	Dir      string           `yaml:"dir"`
	Sanitize bool             `yaml:"sanitize"`
	Git      *GitSourceConfig `yaml:"git,omitempty"`
}

// GitSourceConfig pulls the content directory from a git repository before
// the store is opened.
type GitSourceConfig struct {
	URL       string      `yaml:"url"`
	Branch    string      `yaml:"branch,omitempty"`
	Path      string      `yaml:"path,omitempty"`      // content directory inside the repository
	Depth     int         `yaml:"depth,omitempty"`     // shallow clone depth, 0 = full history
	Workspace string      `yaml:"workspace,omitempty"` // persistent checkout dir; empty = ephemeral
	Auth      *AuthConfig `yaml:"auth,omitempty"`
	Retry     RetryConfig `yaml:"retry"`
}

// AuthConfig is HTTP(S) authentication for the git source.
type AuthConfig struct {
	Type     AuthType `yaml:"type"`
	Username string   `yaml:"username,omitempty"`
	Password string   `yaml:"password,omitempty"`
	Token    string   `yaml:"token,omitempty"`
}

type AuthType string

const (
	AuthTypeNone  AuthType = "none"
	AuthTypeToken AuthType = "token"
	AuthTypeBasic AuthType = "basic"
)

// RetryConfig controls retries of transient git failures.
type RetryConfig struct {
	Backoff    RetryBackoffMode `yaml:"backoff"`
	Initial    time.Duration    `yaml:"initial"`
	Max        time.Duration    `yaml:"max"`
	MaxRetries int              `yaml:"max_retries"`
}

type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

// ThemeConfig is the colour theme. Colour values are palette tokens such as
// "blue.darken2" or literal "#rrggbb".
type ThemeConfig struct {
	CustomVariables []string                     `yaml:"custom_variables"`
	DefaultAssets   bool                         `yaml:"default_assets"`
	Dark            bool                         `yaml:"dark"`
	Themes          map[string]map[string]string `yaml:"themes"`
}

// PurgeCSSConfig is carried unchanged; panorama does not purge stylesheets.
type PurgeCSSConfig struct {
	Content         []string `yaml:"content"`
	StyleExtensions []string `yaml:"style_extensions"`
	Safelist        Safelist `yaml:"safelist"`
}

type Safelist struct {
	Standard []string `yaml:"standard"`
	Deep     []string `yaml:"deep"` // regular expressions
}

// BuildConfig is carried unchanged apart from the BUILD_ANALYZE override.
type BuildConfig struct {
	Analyze     bool              `yaml:"analyze"`
	Parallel    bool              `yaml:"parallel"`
	ExtractCSS  bool              `yaml:"extract_css"`
	SplitChunks SplitChunksConfig `yaml:"split_chunks"`
}

type SplitChunksConfig struct {
	MinSize              int  `yaml:"min_size"`
	MaxSize              int  `yaml:"max_size"`
	EnforceSizeThreshold int  `yaml:"enforce_size_threshold"`
	Layouts              bool `yaml:"layouts"`
	Pages                bool `yaml:"pages"`
	Commons              bool `yaml:"commons"`
}

type RenderConfig struct {
	Crossorigin string `yaml:"crossorigin"`
}

// RouterConfig holds the public base path. Base always starts and ends with "/".
type RouterConfig struct {
	Base string `yaml:"base"`
}

// GenerateConfig drives the static generation run.
type GenerateConfig struct {
	Dir         string        `yaml:"dir"`
	Concurrency int           `yaml:"concurrency"`
	Interval    time.Duration `yaml:"interval"`
	Subfolders  bool          `yaml:"subfolders"`
	Crawler     bool          `yaml:"crawler"`
	Fallback    string        `yaml:"fallback"`
	FailOnError bool          `yaml:"fail_on_error"`
	StaticDir   string        `yaml:"static_dir"`
	Cache       CacheConfig   `yaml:"cache"`
	History     HistoryConfig `yaml:"history"`
	Notify      NotifyConfig  `yaml:"notify"`
}

// CacheConfig lists project paths that never invalidate the generation cache.
type CacheConfig struct {
	Disabled bool     `yaml:"disabled"`
	Ignore   []string `yaml:"ignore"`
}

// HistoryConfig enables the SQLite run history when Path is set.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// NotifyConfig enables JetStream run notifications when NATSURL is set.
type NotifyConfig struct {
	NATSURL string        `yaml:"nats_url"`
	Stream  string        `yaml:"stream"` // JetStream stream bound to Subject
	Subject string        `yaml:"subject"`
	Timeout time.Duration `yaml:"timeout"`
}

type MonitoringConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads the configuration at path on top of Default(), applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	loadEnvFile()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", path).WithCause(err).Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read configuration file").
			WithContext("path", path).Build()
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse configuration file").
			Fatal().WithContext("path", path).Build()
	}

	applyEnvOverrides(cfg)
	normalize(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads path when it exists and falls back to Default() otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		loadEnvFile()
		cfg := Default()
		applyEnvOverrides(cfg)
		normalize(cfg)
		return cfg, Validate(cfg)
	}
	return Load(path)
}

// Init writes the default configuration to path.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).Build()
	}
	data, err := Marshal(Default())
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}
