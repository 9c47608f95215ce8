// Package cli implements the recordstore command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/recordstore/internal/paths"
	"github.com/mesh-intelligence/recordstore/pkg/recordstore"
	"github.com/mesh-intelligence/recordstore/pkg/telemetry"
	"github.com/mesh-intelligence/recordstore/pkg/types"
)

const metricsNamespace = "recordstore"

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// exitError carries a process exit code out of a command. An empty msg means
// the command already reported the failure.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func userError(format string, args ...any) error {
	return &exitError{code: exitUserError, msg: fmt.Sprintf(format, args...)}
}

func sysError(format string, args ...any) error {
	return &exitError{code: exitSysError, msg: fmt.Sprintf(format, args...)}
}

// rootState holds global flag values and the loaded configuration shared by
// all subcommands of one root command.
type rootState struct {
	configDir string
	dataDir   string
	backend   string
	logLevel  string

	v       *viper.Viper
	log     zerolog.Logger
	metrics *telemetry.Metrics
}

// NewRootCmd creates the top-level "recordstore" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	st := &rootState{log: zerolog.Nop()}

	root := &cobra.Command{
		Use:     "recordstore",
		Short:   "Insert, update, find, list and delete call records",
		Long:    "recordstore manages call records kept in named tables\n(" + types.TableCustomers + ", " + types.TableCalls + ") on a memory or SQLite backend.",
		Version: recordstore.Version,
		// Do not print usage or errors; Execute reports them.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return st.load(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&st.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&st.dataDir, "data-dir", "", "data directory (default: $(CWD)/"+paths.DefaultDataDirName+")")
	pf.StringVar(&st.backend, "backend", "", "storage backend: memory or sqlite")
	pf.StringVar(&st.logLevel, "log-level", "", "log level: debug, info, warn, error, disabled")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(st))
	root.AddCommand(newInsertCmd(st))
	root.AddCommand(newUpdateCmd(st))
	root.AddCommand(newGetCmd(st))
	root.AddCommand(newActiveCmd(st))
	root.AddCommand(newDeleteCmd(st))
	root.AddCommand(newExportCmd(st))
	root.AddCommand(newImportCmd(st))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(run(NewRootCmd(), os.Args[1:], os.Stderr))
}

// run executes root with args and returns the process exit code, writing
// error messages to stderr.
func run(root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return exitSuccess
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.msg != "" {
			fmt.Fprintln(stderr, ee.msg)
		}
		return ee.code
	}
	// Flag and argument errors from cobra.
	fmt.Fprintln(stderr, err)
	return exitUserError
}

// load resolves the config directory, reads config.yaml and builds the logger.
func (st *rootState) load(cmd *cobra.Command) error {
	if cmd.Name() == "version" {
		return nil
	}

	configDir, err := paths.ResolveConfigDir(st.configDir)
	if err != nil {
		return sysError("resolve config dir: %s", err)
	}
	st.configDir = configDir

	v, err := loadConfig(configDir)
	if err != nil {
		return sysError("load config: %s", err)
	}
	pf := cmd.Root().PersistentFlags()
	if err := v.BindPFlag(cfgKeyBackend, pf.Lookup("backend")); err != nil {
		return sysError("bind flag: %s", err)
	}
	if err := v.BindPFlag(cfgKeyLogLevel, pf.Lookup("log-level")); err != nil {
		return sysError("bind flag: %s", err)
	}
	st.v = v

	logCfg := telemetry.LoggingConfig{
		Level:  v.GetString(cfgKeyLogLevel),
		Format: v.GetString(cfgKeyLogFormat),
		Output: v.GetString(cfgKeyLogOutput),
	}
	var log zerolog.Logger
	if logCfg.Output == "" {
		log, err = telemetry.NewLoggerTo(cmd.ErrOrStderr(), logCfg)
	} else {
		log, err = telemetry.NewLogger(logCfg)
	}
	if err != nil {
		return userError("configure logging: %s", err)
	}
	st.log = log
	return nil
}

// storeConfig returns the backend configuration after applying flag, env,
// config.yaml and default precedence.
func (st *rootState) storeConfig() (types.Config, error) {
	dataDir, err := paths.ResolveDataDir(st.dataDir, st.v.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, err
	}
	cfg := types.Config{
		Backend: st.v.GetString(cfgKeyBackend),
		DataDir: dataDir,
	}
	return cfg, cfg.Validate()
}

// openDB attaches the configured backend. The caller must Close the DB.
func (st *rootState) openDB() (*recordstore.DB, error) {
	cfg, err := st.storeConfig()
	if err != nil {
		if errors.Is(err, types.ErrBackendUnknown) || errors.Is(err, types.ErrBackendEmpty) {
			return nil, userError("backend %q: %s", cfg.Backend, err)
		}
		return nil, sysError("resolve data dir: %s", err)
	}
	st.metrics = telemetry.NewMetrics(metricsNamespace)
	db, err := recordstore.Open(cfg, recordstore.WithLogger(st.log), recordstore.WithMetrics(st.metrics))
	if err != nil {
		return nil, sysError("open store: %s", err)
	}
	return db, nil
}

// closeDB logs the operations the command ran, then detaches the store. A
// failed detach replaces a nil or already reported error, so a lost snapshot
// never exits 0.
func (st *rootState) closeDB(db *recordstore.DB, errp *error) {
	if counts, err := st.metrics.Counts(); err == nil && len(counts) > 0 {
		st.log.Debug().Interface("operations", counts).Msg("command finished")
	}

	cerr := db.Close()
	if cerr == nil {
		return
	}
	var ee *exitError
	if *errp == nil || (errors.As(*errp, &ee) && ee.msg == "") {
		*errp = sysError("close store: %s", cerr)
	}
}
