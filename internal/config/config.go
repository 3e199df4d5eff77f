package config

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ytgrab/internal/dirs"
)

// Init wires Viper with config paths, env, defaults, and flag bindings.
// It is non-fatal: any errors are returned for optional handling by caller.
func Init(root *cobra.Command) error {
	// Ensure base directories exist
	_ = dirs.EnsureAll()

	// Setup config search path
	if cfgDir, err := dirs.ConfigDir(); err == nil {
		_ = dirs.Ensure(cfgDir)
		viper.AddConfigPath(cfgDir)
	}
	viper.SetConfigName("config") // supports config.{yaml|yml|json|toml}

	// Environment variables: YTGRAB_*
	viper.SetEnvPrefix("YTGRAB")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Bind root persistent flags to Viper keys
	_ = viper.BindPFlag("out_dir", root.PersistentFlags().Lookup("out-dir"))
	_ = viper.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("downloader", root.PersistentFlags().Lookup("downloader"))
	_ = viper.BindPFlag("grace", root.PersistentFlags().Lookup("grace"))

	// Download flags live on the root command too; binding them there gives
	// viper their defaults and lets YTGRAB_FORMAT etc. override the config
	// file.
	_ = viper.BindPFlag("format", root.Flags().Lookup("format"))
	_ = viper.BindPFlag("template", root.Flags().Lookup("template"))
	_ = viper.BindPFlag("rate_limit", root.Flags().Lookup("rate-limit"))
	_ = viper.BindPFlag("cookies_from", root.Flags().Lookup("cookies-from"))
	_ = viper.BindPFlag("sponsorblock_categories", root.Flags().Lookup("sponsorblock-categories"))

	// Read config file if present (ignore not found)
	_ = viper.ReadInConfig()

	return nil
}
