package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "APPHOST_"

// ApplyEnv overrides cfg from environment variables:
//
//	APPHOST_ROOT              root
//	APPHOST_HOST              host
//	APPHOST_PAGE              page
//	APPHOST_PLUGIN_PATHS      pluginPaths, separated by the OS list separator
//	APPHOST_RESOURCES         resources, comma separated
//	APPHOST_LOG_LEVEL         log.level
//	APPHOST_LOG_FORMAT        log.format
//	APPHOST_LOG_DEVELOPMENT   log.development
//
// An empty or blank variable is ignored, so exporting APPHOST_ROOT= does not
// clear a root set in the config file.
func ApplyEnv(cfg *Config, prefix string) error {
	lookup := func(name string) (string, bool) {
		v := strings.TrimSpace(os.Getenv(prefix + name))
		return v, v != ""
	}

	if v, ok := lookup("ROOT"); ok {
		cfg.Root = v
	}
	if v, ok := lookup("HOST"); ok {
		cfg.Host = v
	}
	if v, ok := lookup("PAGE"); ok {
		cfg.Page = v
	}
	if v, ok := lookup("PLUGIN_PATHS"); ok {
		cfg.PluginPaths = splitList(v, string(filepath.ListSeparator))
	}
	if v, ok := lookup("RESOURCES"); ok {
		cfg.Resources = splitList(v, ",")
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := lookup("LOG_FORMAT"); ok {
		cfg.Log.Format = v
	}
	if v, ok := lookup("LOG_DEVELOPMENT"); ok {
		b, err := parseBool(v)
		if err != nil {
			return fmt.Errorf("%sLOG_DEVELOPMENT: %w", prefix, err)
		}
		cfg.Log.Development = b
	}
	return nil
}

func splitList(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	return strconv.ParseBool(s)
}
