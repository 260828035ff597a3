package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	SaveDirectory string        `mapstructure:"save_directory"`
	StartMenu     bool          `mapstructure:"start_menu"`
	Confirmations bool          `mapstructure:"confirmations"`
	FrameInterval time.Duration `mapstructure:"frame_interval"`
	Defaults      ScrollConfig  `mapstructure:"defaults"`
	Flip          string        `mapstructure:"flip"`
	Mirror        MirrorConfig  `mapstructure:"mirror"`
	GitHub        GitHubConfig  `mapstructure:"github"`
	GoogleDocs    DocsConfig    `mapstructure:"google_docs"`
	HTTP          HTTPConfig    `mapstructure:"http"`
	Log           LogConfig     `mapstructure:"log"`
}

type MirrorConfig struct {
	TTY string `mapstructure:"tty"`
}

type GitHubConfig struct {
	APIURL string `mapstructure:"api_url"`
	Token  string `mapstructure:"token"`
}

type DocsConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

func setConfigDefaults(v *viper.Viper) {
	d := defaultScrollConfig()
	v.SetDefault("save_directory", "")
	v.SetDefault("start_menu", true)
	v.SetDefault("confirmations", true)
	v.SetDefault("frame_interval", defaultFrameInterval)
	v.SetDefault("defaults.speed", d.Speed)
	v.SetDefault("defaults.font_size", d.FontSize)
	v.SetDefault("defaults.line_height", d.LineHeight)
	v.SetDefault("defaults.opacity", d.Opacity)
	v.SetDefault("defaults.infinite_scroll", d.Infinite)
	v.SetDefault("flip", "none")
	v.SetDefault("mirror.tty", "")
	v.SetDefault("github.api_url", defaultGitHubAPIURL)
	v.SetDefault("github.token", "")
	v.SetDefault("google_docs.base_url", defaultGoogleDocsBaseURL)
	v.SetDefault("http.timeout", defaultHTTPTimeout)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
}

// loadConfig reads configPath when given. Otherwise the usual locations are
// searched and a missing file just means defaults.
func loadConfig(v *viper.Viper, configPath string) (*Config, error) {
	setConfigDefaults(v)
	v.SetEnvPrefix("TELEPROMPT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	homeDir, _ := os.UserHomeDir()
	if configPath != "" {
		v.SetConfigFile(expandHome(configPath, homeDir))
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if homeDir != "" {
			v.AddConfigPath(filepath.Join(homeDir, ".config", "teleprompt"))
		}
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, err
	}
	config.Defaults.Flip = parseFlipMode(config.Flip)
	config.Defaults = config.Defaults.Normalize()
	if config.FrameInterval <= 0 {
		config.FrameInterval = defaultFrameInterval
	}
	if config.HTTP.Timeout <= 0 {
		config.HTTP.Timeout = defaultHTTPTimeout
	}
	if config.SaveDirectory != "" {
		value := expandHome(config.SaveDirectory, homeDir)
		if !filepath.IsAbs(value) {
			if absPath, err := filepath.Abs(value); err == nil {
				value = absPath
			}
		}
		config.SaveDirectory = value
	}
	config.Mirror.TTY = expandHome(config.Mirror.TTY, homeDir)
	config.Log.File = expandHome(config.Log.File, homeDir)
	return config, nil
}

func expandHome(p, homeDir string) string {
	if homeDir != "" && strings.HasPrefix(p, "~") {
		return filepath.Join(homeDir, strings.TrimPrefix(p, "~"))
	}
	return p
}

func (c *Config) GetSavePath(filename string) string {
	if c.SaveDirectory == "" {
		return filename
	}
	os.MkdirAll(c.SaveDirectory, 0755)
	return filepath.Join(c.SaveDirectory, filename)
}

// scriptDirectory is where the file picker looks for scripts.
func (c *Config) scriptDirectory() string {
	if c.SaveDirectory != "" {
		return c.SaveDirectory
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return dir
}
