package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	Backend  string `yaml:"backend"`
	DataDir  string `yaml:"data_dir,omitempty"`
	LogLevel string `yaml:"log_level,omitempty"`
}

func newInitCmd(st *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize record store configuration and storage",
		Long:  "Create the configuration directory and config.yaml, then initialize the storage backend.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := st.storeConfig()
			if err != nil {
				return userError("init: %s", err)
			}

			if err := os.MkdirAll(st.configDir, 0o755); err != nil {
				return sysError("create config directory: %s", err)
			}
			configPath := filepath.Join(st.configDir, configFileExt)
			written, err := writeConfigIfMissing(configPath, configFile{
				Backend:  cfg.Backend,
				DataDir:  cfg.DataDir,
				LogLevel: st.v.GetString(cfgKeyLogLevel),
			})
			if err != nil {
				return sysError("write config: %s", err)
			}

			db, err := st.openDB()
			if err != nil {
				return err
			}
			if err := db.Close(); err != nil {
				return sysError("finalize storage: %s", err)
			}

			out := cmd.OutOrStdout()
			if written {
				fmt.Fprintf(out, "Wrote %s\n", configPath)
			}
			fmt.Fprintf(out, "Record store initialized (%s backend, data in %s)\n", cfg.Backend, cfg.DataDir)
			return nil
		},
	}
}

// writeConfigIfMissing creates config.yaml if the file does not exist and
// reports whether it wrote one.
func writeConfigIfMissing(path string, cfg configFile) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
