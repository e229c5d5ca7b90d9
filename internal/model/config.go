package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Defaults for the board service and the external systems checked by
// default. They can all be overridden from the config file.
const (
	DefaultBoardAPIURL    = "https://api.trello.com/1"
	DefaultAuthorizeURL   = "https://trello.com/1/authorize"
	DefaultAppKey         = "ec65a98b933f15b1fdb63dd79ef281b3"
	DefaultAppName        = "Trelloha"
	DefaultBoardMachine   = "trello.com"
	DefaultGitHubURL      = "https://github.com"
	DefaultGitHubAPIURL   = "https://api.github.com"
	DefaultLogLevel       = "info"
	DefaultWorkers        = 1
	DefaultWatchInterval  = 300
	DefaultRequestTimeout = 30
)

// githubTokenEnv lists the environment variables that supply the GitHub
// token, highest precedence first.
var githubTokenEnv = []string{"TRELLOHA_GITHUB_TOKEN", "GITHUB_TOKEN"}

// SystemConfig names one instance of an external system (a Gerrit
// server, a Bugzilla tracker, ...) by its base URL.
type SystemConfig struct {
	Name    string `mapstructure:"name" yaml:"name" validate:"required"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url" validate:"required,url"`
}

// TrustConfig replaces the system roots with a CA bundle for every
// request whose URL starts with BaseURL.
type TrustConfig struct {
	BaseURL  string `mapstructure:"base_url" yaml:"base_url" validate:"required,url"`
	CABundle string `mapstructure:"ca_bundle" yaml:"ca_bundle" validate:"required"`
}

// BoardConfig holds the board service endpoints and application identity.
type BoardConfig struct {
	APIURL       string `mapstructure:"api_url" yaml:"api_url" validate:"required,url"`
	AuthorizeURL string `mapstructure:"authorize_url" yaml:"authorize_url" validate:"required,url"`
	AppKey       string `mapstructure:"app_key" yaml:"app_key" validate:"required"`
	AppName      string `mapstructure:"app_name" yaml:"app_name" validate:"required"`

	// Machine is the netrc/keyring entry holding the board id (login)
	// and the access token (password).
	Machine string `mapstructure:"machine" yaml:"machine" validate:"required"`
}

// CredentialsConfig controls where secrets are looked up.
type CredentialsConfig struct {
	// NetrcFile overrides the default ~/.netrc location.
	NetrcFile string `mapstructure:"netrc_file" yaml:"netrc_file"`

	// Keyring enables the system keyring as a fallback after netrc.
	Keyring bool `mapstructure:"keyring" yaml:"keyring"`
}

// GitHubConfig configures pull request lookups.
type GitHubConfig struct {
	URL    string `mapstructure:"url" yaml:"url" validate:"required,url"`
	APIURL string `mapstructure:"api_url" yaml:"api_url" validate:"required,url"`

	// Token is optional; lookups are anonymous without it.
	Token string `mapstructure:"token" yaml:"token,omitempty"`

	// fileToken is the token as written in the config file. It is what
	// SaveConfig persists when Token was taken from the environment.
	fileToken string
	envToken  bool
}

// ScanConfig tunes the board scan.
type ScanConfig struct {
	Workers           int  `mapstructure:"workers" yaml:"workers" validate:"min=1"`
	DryRun            bool `mapstructure:"dry_run" yaml:"dry_run"`
	WatchIntervalSec  int  `mapstructure:"watch_interval_sec" yaml:"watch_interval_sec" validate:"min=10"`
	RequestTimeoutSec int  `mapstructure:"request_timeout_sec" yaml:"request_timeout_sec" validate:"min=1"`
}

// LogConfig holds logging preferences.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
}

// AppConfig is the top-level application configuration. It is treated
// as immutable once loaded.
type AppConfig struct {
	Board       BoardConfig       `mapstructure:"board" yaml:"board"`
	Credentials CredentialsConfig `mapstructure:"credentials" yaml:"credentials"`
	Gerrit      []SystemConfig    `mapstructure:"gerrit" yaml:"gerrit" validate:"dive"`
	GitHub      GitHubConfig      `mapstructure:"github" yaml:"github"`
	Bugzilla    []SystemConfig    `mapstructure:"bugzilla" yaml:"bugzilla" validate:"dive"`
	Bitbucket   []SystemConfig    `mapstructure:"bitbucket" yaml:"bitbucket" validate:"dive"`
	Jira        []SystemConfig    `mapstructure:"jira" yaml:"jira" validate:"dive"`
	Trust       []TrustConfig     `mapstructure:"trust" yaml:"trust" validate:"dive"`
	Scan        ScanConfig        `mapstructure:"scan" yaml:"scan"`
	Log         LogConfig         `mapstructure:"log" yaml:"log"`
}

// DefaultGerritSystems are the review systems checked when none are
// configured. Order matters: the first one found in a label wins.
func DefaultGerritSystems() []SystemConfig {
	return []SystemConfig{
		{Name: "OpenStack", BaseURL: "https://review.openstack.org"},
		{Name: "RDO", BaseURL: "https://review.rdoproject.org"},
		{Name: "RHOS", BaseURL: "https://code.engineering.redhat.com/gerrit"},
	}
}

// DefaultBugzillaTrackers are the defect trackers checked when none are
// configured.
func DefaultBugzillaTrackers() []SystemConfig {
	return []SystemConfig{
		{Name: "Red Hat", BaseURL: "https://bugzilla.redhat.com"},
	}
}

// DefaultTrust pins the internal Gerrit host to its own CA bundle.
func DefaultTrust() []TrustConfig {
	return []TrustConfig{
		{BaseURL: "https://code.engineering.redhat.com", CABundle: "rh-cacert.crt"},
	}
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/trelloha/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "trelloha", "config.yaml")
}

// DefaultAppConfig returns the built-in configuration.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Board: BoardConfig{
			APIURL:       DefaultBoardAPIURL,
			AuthorizeURL: DefaultAuthorizeURL,
			AppKey:       DefaultAppKey,
			AppName:      DefaultAppName,
			Machine:      DefaultBoardMachine,
		},
		Credentials: CredentialsConfig{Keyring: true},
		Gerrit:      DefaultGerritSystems(),
		GitHub: GitHubConfig{
			URL:    DefaultGitHubURL,
			APIURL: DefaultGitHubAPIURL,
		},
		Bugzilla: DefaultBugzillaTrackers(),
		Trust:    DefaultTrust(),
		Scan: ScanConfig{
			Workers:           DefaultWorkers,
			WatchIntervalSec:  DefaultWatchInterval,
			RequestTimeoutSec: DefaultRequestTimeout,
		},
		Log: LogConfig{Level: DefaultLogLevel},
	}
}

// setDefaults registers every default with v so that keys missing from
// the file (or the file itself) resolve to sensible values.
func setDefaults(v *viper.Viper) {
	def := DefaultAppConfig()

	v.SetDefault("board.api_url", def.Board.APIURL)
	v.SetDefault("board.authorize_url", def.Board.AuthorizeURL)
	v.SetDefault("board.app_key", def.Board.AppKey)
	v.SetDefault("board.app_name", def.Board.AppName)
	v.SetDefault("board.machine", def.Board.Machine)
	v.SetDefault("credentials.netrc_file", "")
	v.SetDefault("credentials.keyring", def.Credentials.Keyring)
	v.SetDefault("gerrit", def.Gerrit)
	v.SetDefault("github.url", def.GitHub.URL)
	v.SetDefault("github.api_url", def.GitHub.APIURL)
	v.SetDefault("github.token", "")
	v.SetDefault("bugzilla", def.Bugzilla)
	v.SetDefault("bitbucket", []SystemConfig{})
	v.SetDefault("jira", []SystemConfig{})
	v.SetDefault("trust", def.Trust)
	v.SetDefault("scan.workers", def.Scan.Workers)
	v.SetDefault("scan.dry_run", false)
	v.SetDefault("scan.watch_interval_sec", def.Scan.WatchIntervalSec)
	v.SetDefault("scan.request_timeout_sec", def.Scan.RequestTimeoutSec)
	v.SetDefault("log.level", def.Log.Level)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// A missing file is not an error: defaults and TRELLOHA_* environment
// variables still apply. Relative CA bundle paths are resolved against
// the directory holding the config file.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("TRELLOHA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv(append([]string{"github.token"}, githubTokenEnv...)...); err != nil {
		return nil, fmt.Errorf("binding github token env: %w", err)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if tokenFromEnv() {
		cfg.GitHub.envToken = true
		cfg.GitHub.fileToken = fileString(path, "github.token")
	}

	baseDir := filepath.Dir(path)
	for i := range cfg.Trust {
		bundle := cfg.Trust[i].CABundle
		if bundle != "" && !filepath.IsAbs(bundle) {
			cfg.Trust[i].CABundle = filepath.Join(baseDir, bundle)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

func tokenFromEnv() bool {
	for _, name := range githubTokenEnv {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

// fileString reads key from the config file alone, ignoring defaults and
// the environment. A missing or unreadable file yields "".
func fileString(path, key string) string {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return ""
	}
	return v.GetString(key)
}

// persisted returns the GitHub settings as they belong on disk: a token
// supplied by the environment is replaced by the one from the file.
func (g GitHubConfig) persisted() GitHubConfig {
	if g.envToken {
		g.Token = g.fileToken
	}
	return g
}

// Validate checks field constraints declared in the struct tags.
func (c *AppConfig) Validate() error {
	return validator.New().Struct(c)
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed. The file is readable by the
// owner only, and a GitHub token taken from the environment is not
// written.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetConfigPermissions(0o600)

	v.Set("board", cfg.Board)
	v.Set("credentials", cfg.Credentials)
	v.Set("gerrit", cfg.Gerrit)
	v.Set("github", cfg.GitHub.persisted())
	v.Set("bugzilla", cfg.Bugzilla)
	v.Set("bitbucket", cfg.Bitbucket)
	v.Set("jira", cfg.Jira)
	v.Set("trust", cfg.Trust)
	v.Set("scan", cfg.Scan)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	// An existing file keeps its mode on rewrite.
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("restricting %s: %w", path, err)
	}

	return nil
}
