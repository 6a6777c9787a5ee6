package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/creasty/defaults"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/leeforge/giftstudio/env_mode"
	"github.com/leeforge/giftstudio/logging"
)

// DefaultEnvPrefix namespaces environment overrides, e.g. STUDIO_SERVER_ADDR.
const DefaultEnvPrefix = "STUDIO"

func DefaultConfigOptions() ConfigOptions {
	basePath := os.Getenv("STUDIO_CONFIG_PATH")
	if basePath == "" {
		basePath = "config"
	}

	return ConfigOptions{
		BasePath:  basePath,
		FileName:  "config",
		FileType:  "yaml",
		EnvPrefix: DefaultEnvPrefix,
	}
}

func DevConfigOptions() ConfigOptions {
	opts := DefaultConfigOptions()
	opts.WatchAble = true
	return opts
}

func NewConfig(optsArr ...ConfigOptions) (*Config, error) {
	opts := DefaultConfigOptions()
	if len(optsArr) > 0 {
		opts = optsArr[0]
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}

	instance, err := CreateConfig(opts)
	if err != nil {
		return nil, err
	}

	return &Config{
		instance: instance,
		opts:     opts,
	}, nil
}

// Bind unmarshals the merged configuration into instance. With WatchAble set,
// later file changes are unmarshalled into the same instance.
func (c *Config) Bind(instance any) error {
	if c == nil || c.instance == nil {
		return fmt.Errorf("config instance is nil")
	}
	if instance == nil {
		return fmt.Errorf("target instance is nil")
	}

	c.watchMutex.Lock()
	defer c.watchMutex.Unlock()

	if err := c.instance.Unmarshal(instance); err != nil {
		return fmt.Errorf("unmarshal config (path: %s, file: %s.%s): %w",
			c.opts.BasePath, c.opts.FileName, c.opts.FileType, err)
	}

	if c.opts.WatchAble {
		c.watchOnce.Do(func() {
			c.instance.OnConfigChange(func(e fsnotify.Event) {
				c.watchMutex.Lock()
				defer c.watchMutex.Unlock()

				if err := c.instance.Unmarshal(instance); err != nil {
					c.opts.Logger.Error("config reload failed",
						zap.String("file", e.Name), zap.Error(err))
					return
				}
				c.opts.Logger.Info("config reloaded", zap.String("file", e.Name))

				if c.opts.OnChange != nil {
					c.opts.OnChange(e)
				}
			})
			c.instance.WatchConfig()
		})
	}

	return nil
}

// BindWithDefaults applies `default` tags first so that keys missing from
// every file keep their default while present keys, false included, win.
func (c *Config) BindWithDefaults(instance any) error {
	if err := defaults.Set(instance); err != nil {
		return fmt.Errorf("set defaults: %w", err)
	}
	if err := c.Bind(instance); err != nil {
		return err
	}
	if v, ok := instance.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}
	return nil
}

func (c *Config) Get(key string) any {
	c.watchMutex.RLock()
	defer c.watchMutex.RUnlock()

	return c.instance.Get(key)
}

func (c *Config) Set(key string, value any) {
	c.watchMutex.Lock()
	defer c.watchMutex.Unlock()

	c.instance.Set(key, value)
}

// Files lists the configuration files merged into this Config, lowest
// priority first.
func (c *Config) Files() []string {
	return getConfigFilePaths(c.opts)
}

// CreateConfig merges every matching file under opts.BasePath into a single
// viper instance. A missing directory yields an empty configuration so that
// defaults and environment overrides still apply.
func CreateConfig(opts ConfigOptions) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType(opts.FileType)

	configPaths := getConfigFilePaths(opts)
	for _, configPath := range configPaths {
		tempV := viper.New()
		tempV.SetConfigFile(configPath)
		if err := tempV.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configPath, err)
		}

		for _, key := range tempV.AllKeys() {
			v.Set(key, tempV.Get(key))
		}
	}
	// Watch the most specific file.
	if len(configPaths) > 0 {
		v.SetConfigFile(configPaths[len(configPaths)-1])
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	if opts.EnvPrefix != "" {
		v.SetEnvPrefix(opts.EnvPrefix)
	}
	v.AutomaticEnv()

	applyEnvOverrides(v, opts.EnvPrefix)

	return v, nil
}

// applyEnvOverrides sets every known key that has a matching environment
// variable, which makes env values visible to Unmarshal as well as Get.
func applyEnvOverrides(v *viper.Viper, envPrefix string) {
	replacer := strings.NewReplacer(".", "_", "-", "_")

	for _, key := range v.AllKeys() {
		envKey := strings.ToUpper(replacer.Replace(key))
		if envPrefix != "" {
			envKey = envPrefix + "_" + envKey
		}
		if envValue, ok := os.LookupEnv(envKey); ok && envValue != "" {
			v.Set(key, envValue)
		}
	}
}

func getConfigFilePaths(opts ConfigOptions) (configFiles []string) {
	env := env_mode.Mode()
	fileNames := []string{
		opts.FileName,
		fmt.Sprintf("%s.local", opts.FileName),
	}

	var aliases []string
	switch env {
	case env_mode.DevMode:
		aliases = []string{"dev", "development"}
	case env_mode.ProMode:
		aliases = []string{"pro", "prod", "production"}
	case env_mode.TestMode:
		aliases = []string{"test"}
	}
	for _, alias := range aliases {
		fileNames = append(fileNames,
			fmt.Sprintf("%s.%s", opts.FileName, alias),
			fmt.Sprintf("%s.%s.local", opts.FileName, alias),
		)
	}

	seen := make(map[string]struct{}, len(fileNames))
	for _, fileName := range fileNames {
		file := filepath.Join(opts.BasePath, fmt.Sprintf("%s.%s", fileName, opts.FileType))
		if _, dup := seen[file]; dup {
			continue
		}
		seen[file] = struct{}{}
		if isFile(file) {
			configFiles = append(configFiles, file)
		}
	}

	return configFiles
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
