package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/tidwall/jsonc"

	"github.com/reploy-cli/reploy/internal/errors"
)

// Config represents the complete reploy configuration file. The embedded
// WorkspaceConfig is the top-level workspace: it is the only workspace when
// Workspaces is empty, and its Pipelines are the global pipelines otherwise.
type Config struct {
	WorkspaceConfig `mapstructure:",squash" yaml:",inline"`

	// Workspaces holds named workspaces. Keys are matched case-insensitively.
	Workspaces map[string]WorkspaceConfig `mapstructure:"workspaces" yaml:"workspaces,omitempty"`
	// DefaultWorkspace is used when no workspace was requested explicitly.
	DefaultWorkspace string `mapstructure:"defaultWorkspace" yaml:"defaultWorkspace,omitempty"`

	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Session SessionConfig `mapstructure:"session" yaml:"session"`
}

// WorkspaceConfig is a named scope of repositories and pipelines.
type WorkspaceConfig struct {
	// Root is the directory relative repository and command paths resolve against.
	Root string `mapstructure:"workspace" yaml:"workspace,omitempty"`
	// Concurrency bounds how many repositories --all verbs touch at once (1-32).
	Concurrency int        `mapstructure:"concurrency" yaml:"concurrency"`
	Repos       []Repo     `mapstructure:"repos" yaml:"repos,omitempty"`
	Ignores     []string   `mapstructure:"ignores" yaml:"ignores,omitempty"`
	Pipelines   []Pipeline `mapstructure:"pipelines" yaml:"pipelines,omitempty"`
}

// Repo describes one repository checkout.
type Repo struct {
	Name           string       `mapstructure:"name" yaml:"name"`
	Path           string       `mapstructure:"path" yaml:"path"`
	Type           string       `mapstructure:"type" yaml:"type,omitempty"`
	PackageManager string       `mapstructure:"packageManager" yaml:"packageManager,omitempty"`
	Dotnet         DotnetConfig `mapstructure:"dotnet" yaml:"dotnet,omitempty"`
	Java           JavaConfig   `mapstructure:"java" yaml:"java,omitempty"`
	Remote         RemoteConfig `mapstructure:"remote" yaml:"remote,omitempty"`
	Demo           StartConfig  `mapstructure:"demo" yaml:"demo,omitempty"`
	Integration    StartConfig  `mapstructure:"integration" yaml:"integration,omitempty"`
}

// DotnetConfig pins the solution file used for .NET restore and build.
type DotnetConfig struct {
	Solution string `mapstructure:"solution" yaml:"solution,omitempty"`
}

// JavaConfig pins the Java build tool ("maven" or "gradle").
type JavaConfig struct {
	BuildTool string `mapstructure:"buildTool" yaml:"buildTool,omitempty"`
}

// RemoteConfig is the explicit origin URL for a repository.
type RemoteConfig struct {
	URL string `mapstructure:"url" yaml:"url,omitempty"`
}

// StartConfig is a command line used to start a repository in some mode.
type StartConfig struct {
	Start string `mapstructure:"start" yaml:"start,omitempty"`
}

// Repo type values
const (
	RepoTypeFrontend = "frontend"
	RepoTypeBackend  = "backend"
)

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled writes JSON logs to <state dir>/logs/debug.log (default: false)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level" yaml:"level"`
}

// SessionConfig controls how detached sessions are opened.
type SessionConfig struct {
	// Backend is "tmux" (default) or "terminal".
	Backend string `mapstructure:"backend" yaml:"backend"`
	// Socket is the tmux socket name passed with -L (default: "reploy").
	Socket string `mapstructure:"socket" yaml:"socket"`
	// Terminal is the emulator command line used by the terminal backend.
	// The composed session script is appended as its final arguments.
	Terminal string `mapstructure:"terminal" yaml:"terminal"`
	// KeepOpen waits for Enter before the session exits (default: true).
	KeepOpen bool `mapstructure:"keepOpen" yaml:"keepOpen"`
}

// Session backends
const (
	BackendTmux     = "tmux"
	BackendTerminal = "terminal"
)

// Default values
const (
	DefaultConcurrency = 6
	DefaultSocket      = "reploy"
	DefaultTerminal    = "x-terminal-emulator -e"
)

// Default returns a Config with sensible default values
func Default() *Config {
	cwd, _ := os.Getwd()
	return &Config{
		WorkspaceConfig: WorkspaceConfig{
			Root:        cwd,
			Concurrency: DefaultConcurrency,
		},
		Logging: LoggingConfig{
			Enabled: false,
			Level:   "info",
		},
		Session: SessionConfig{
			Backend:  BackendTmux,
			Socket:   DefaultSocket,
			Terminal: DefaultTerminal,
			KeepOpen: true,
		},
	}
}

// SetDefaults registers default values with v
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("workspace", defaults.Root)
	v.SetDefault("concurrency", defaults.Concurrency)

	v.SetDefault("logging.enabled", defaults.Logging.Enabled)
	v.SetDefault("logging.level", defaults.Logging.Level)

	v.SetDefault("session.backend", defaults.Session.Backend)
	v.SetDefault("session.socket", defaults.Session.Socket)
	v.SetDefault("session.terminal", defaults.Session.Terminal)
	v.SetDefault("session.keepOpen", defaults.Session.KeepOpen)
}

// Load reads the configuration file at path into a Config and validates it.
// An empty path yields the defaults. Relative paths inside the file resolve
// against the workspace root, which itself resolves against the directory
// holding the config file.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	baseDir, _ := os.Getwd()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.NewNotFoundError("config file", path).WithCause(err)
			}
			return nil, errors.Wrapf(err, "reading config %s", path)
		}

		format := configType(path)
		if format == "json" {
			data = jsonc.ToJSON(data)
		}
		v.SetConfigType(format)
		if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
			return nil, errors.Wrapf(err, "parsing config %s", path)
		}
		baseDir = filepath.Dir(path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook())); err != nil {
		return nil, errors.Wrapf(err, "decoding config %s", path)
	}
	cfg.normalize(baseDir)

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

func configType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// normalize fills per-workspace defaults and makes every repository path absolute.
func (c *Config) normalize(baseDir string) {
	c.WorkspaceConfig.normalize(baseDir, DefaultConcurrency)
	for name, ws := range c.Workspaces {
		if ws.Root == "" {
			ws.Root = c.Root
		}
		ws.normalize(baseDir, c.Concurrency)
		c.Workspaces[name] = ws
	}
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Session.Backend = strings.ToLower(c.Session.Backend)
}

func (w *WorkspaceConfig) normalize(baseDir string, concurrency int) {
	w.Root = expandHome(w.Root)
	if w.Root != "" && !filepath.IsAbs(w.Root) {
		w.Root = filepath.Join(baseDir, w.Root)
	}
	if w.Concurrency == 0 {
		w.Concurrency = concurrency
	}
	for i := range w.Repos {
		p := expandHome(w.Repos[i].Path)
		if p == "" {
			continue
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(w.Root, p)
		}
		w.Repos[i].Path = filepath.Clean(p)
	}
}

// FindRepo looks up a repository by case-insensitive name.
func (w *WorkspaceConfig) FindRepo(name string) (Repo, bool) {
	for _, r := range w.Repos {
		if strings.EqualFold(r.Name, name) {
			return r, true
		}
	}
	return Repo{}, false
}

// FindPipeline looks up a pipeline by case-insensitive name.
func (w *WorkspaceConfig) FindPipeline(name string) (Pipeline, bool) {
	return findPipeline(w.Pipelines, name)
}

func findPipeline(pipelines []Pipeline, name string) (Pipeline, bool) {
	for _, p := range pipelines {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Pipeline{}, false
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "reploy")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".reploy"
	}
	return filepath.Join(home, ".config", "reploy")
}

// FileNames are the config file names searched for in the current directory.
var FileNames = []string{"reploy.config.json", "reploy.config.yaml", "reploy.config.yml"}

// Discover returns the config file to load. An explicit path must exist.
// Otherwise the current directory is searched for FileNames, then ConfigDir
// for config.{yaml,yml,json}. An empty result means no config file was found.
func Discover(explicit string) (string, error) {
	if explicit != "" {
		abs, err := filepath.Abs(expandHome(explicit))
		if err != nil {
			return "", errors.Wrapf(err, "resolving config path %s", explicit)
		}
		if _, err := os.Stat(abs); err != nil {
			return "", errors.NewNotFoundError("config file", abs).WithCause(err)
		}
		return abs, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "resolving working directory")
	}

	candidates := make([]string, 0, len(FileNames)+3)
	for _, name := range FileNames {
		candidates = append(candidates, filepath.Join(cwd, name))
	}
	for _, name := range []string{"config.yaml", "config.yml", "config.json"} {
		candidates = append(candidates, filepath.Join(ConfigDir(), name))
	}

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	return "", nil
}
