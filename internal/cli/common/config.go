package common

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cuihairu/filacheck/internal/catalog"
	"github.com/cuihairu/filacheck/internal/notify"
	"github.com/cuihairu/filacheck/internal/objstore"
	"github.com/cuihairu/filacheck/internal/telemetry"
)

// EnvPrefix prefixes environment overrides, e.g. FILACHECK_LOG_LEVEL.
const EnvPrefix = "FILACHECK"

// Globals holds the persistent root flags.
type Globals struct {
	ConfigFile string
	Includes   []string
	Profile    string
	JSONLogs   bool
}

// Bind registers the persistent flags on the root command.
func (g *Globals) Bind(root *cobra.Command) {
	pf := root.PersistentFlags()
	pf.StringVar(&g.ConfigFile, "config", "", "config file (yaml)")
	pf.StringSliceVar(&g.Includes, "include", nil, "additional config files merged in order")
	pf.StringVar(&g.Profile, "profile", "", "profile overlay from profiles.<name>")
	pf.BoolVar(&g.JSONLogs, "json", false, "emit logs as JSON (same as --log.format=json)")
	pf.String("root", ".", "catalog root directory")
	pf.String("log.level", "info", "log level: debug|info|warn|error")
	pf.String("log.format", "console", "log format: console|json")
	pf.String("log.file", "", "log file path (if set, enable rotation)")
}

// Load builds the effective configuration for cmd: config file, includes,
// profile overlay, environment, then flags.
func (g *Globals) Load(cmd *cobra.Command) (*viper.Viper, error) {
	v, err := LoadWithIncludes(g.ConfigFile, g.Includes)
	if err != nil {
		return nil, err
	}
	if v, err = ApplySectionAndProfile(v, "", g.Profile); err != nil {
		return nil, err
	}
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.InheritedFlags()); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	if g.JSONLogs {
		v.Set("log.format", "json")
	}
	return v, nil
}

// Init loads the configuration and installs the default logger.
func (g *Globals) Init(cmd *cobra.Command) (*viper.Viper, error) {
	v, err := g.Load(cmd)
	if err != nil {
		return nil, err
	}
	SetupLogger(v)
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("root", ".")
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("format", "text")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age", 7)
	v.SetDefault("log.compress", true)
}

// Settings is the decoded configuration shared by the commands.
type Settings struct {
	Layout    catalog.Layout
	Workers   int
	Strict    bool
	Format    string
	Publish   objstore.Config
	Notify    notify.Config
	Telemetry telemetry.Config
}

// Decode turns v into Settings. Directory overrides are resolved against
// the catalog root.
func Decode(v *viper.Viper) (Settings, error) {
	s := Settings{
		Layout:  catalog.NewLayout(v.GetString("root")),
		Workers: v.GetInt("workers"),
		Strict:  v.GetBool("strict"),
		Format:  v.GetString("format"),
	}
	// nested sections decode over their defaults
	s.Telemetry = telemetry.DefaultConfig()
	for key, dst := range map[string]*string{
		"data_dir":    &s.Layout.DataDir,
		"stores_dir":  &s.Layout.StoresDir,
		"schemas_dir": &s.Layout.SchemasDir,
	} {
		if p := v.GetString(key); p != "" {
			if !filepath.IsAbs(p) {
				p = filepath.Join(s.Layout.Root, p)
			}
			*dst = p
		}
	}
	if err := v.UnmarshalKey("publish", &s.Publish); err != nil {
		return s, fmt.Errorf("publish: %w", err)
	}
	if err := v.UnmarshalKey("notify", &s.Notify); err != nil {
		return s, fmt.Errorf("notify: %w", err)
	}
	if err := v.UnmarshalKey("telemetry", &s.Telemetry); err != nil {
		return s, fmt.Errorf("telemetry: %w", err)
	}
	return s, nil
}

// LoadWithIncludes reads base config and merges includes in order.
func LoadWithIncludes(base string, includes []string) (*viper.Viper, error) {
	v := viper.New()
	if base != "" {
		v.SetConfigFile(base)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	for _, inc := range includes {
		iv := viper.New()
		iv.SetConfigFile(inc)
		if err := iv.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("include %s: %w", inc, err)
		}
		if err := v.MergeConfigMap(iv.AllSettings()); err != nil {
			return nil, fmt.Errorf("include %s: %w", inc, err)
		}
	}
	return v, nil
}

// mergeMaps recursively merges b into a.
func mergeMaps(a, b map[string]any) map[string]any {
	for k, vb := range b {
		if ma, ok := a[k].(map[string]any); ok {
			if mb, ok2 := vb.(map[string]any); ok2 {
				a[k] = mergeMaps(ma, mb)
				continue
			}
		}
		a[k] = vb
	}
	return a
}

// ApplySectionAndProfile extracts an optional section and overlays
// profiles.<name> if present.
func ApplySectionAndProfile(v *viper.Viper, section, profile string) (*viper.Viper, error) {
	if section != "" {
		sub := v.Sub(section)
		if sub == nil {
			return nil, fmt.Errorf("section %s not found", section)
		}
		v = sub
	}
	if profile != "" {
		prof := v.Sub("profiles")
		if prof == nil {
			return nil, fmt.Errorf("profiles not found in config")
		}
		p := prof.Sub(profile)
		if p == nil {
			return nil, fmt.Errorf("profile %s not found", profile)
		}
		merged := mergeMaps(v.AllSettings(), p.AllSettings())
		nv := viper.New()
		if err := nv.MergeConfigMap(merged); err != nil {
			return nil, err
		}
		v = nv
	}
	return v, nil
}
