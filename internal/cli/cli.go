package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hamidzr/surferh/constant"
	"github.com/hamidzr/surferh/core"
	"github.com/hamidzr/surferh/internal/config"
	"github.com/hamidzr/surferh/internal/logger"
	"github.com/hamidzr/surferh/model"
	"github.com/hamidzr/surferh/pkg/settingsfile"
	"github.com/hamidzr/surferh/render"
	"github.com/hamidzr/surferh/store"
)

// Output formats for settings.
const (
	formatSheet = "sheet"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func InitCLI() *cobra.Command {
	RootCmd := &cobra.Command{
		Use:           constant.ProjectName,
		Short:         "surferh manages the settings of the browser agent",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// check if user wants to initialize config
			initConfig, _ := cmd.Flags().GetBool("init-config")
			if initConfig {
				profile, _ := cmd.Flags().GetString("profile")
				configPath, err := config.InitConfigFile(profile)
				if err != nil {
					return model.NewExitError(model.ConfigError, fmt.Errorf("failed to initialize config: %w", err))
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Config file created at: %s\n", configPath)
				if profile != "" {
					fmt.Fprintf(out, "Use with: %s --profile %s\n", constant.ProjectName, profile)
				}
				return nil
			}
			return runShow(cmd, "")
		},
	}

	config.BindFlags(RootCmd)

	RootCmd.AddCommand(
		newShowCmd(),
		newGetCmd(),
		newSetCmd(),
		newResetCmd(),
		newExampleCmd(),
		newCheckCmd(),
		newImportCmd(),
		newExportCmd(),
		newRequestCmd(),
		newWatchCmd(),
		newPathCmd(),
	)

	return RootCmd
}

// env is what every subcommand works against.
type env struct {
	cfg     *model.Config
	store   *store.SettingsStore
	session *core.Session
	slot    store.Slot
}

func openEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := config.InitConfig(cmd)
	if err != nil {
		return nil, model.NewExitError(model.ConfigError, fmt.Errorf("failed to initialize config: %w", err))
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		return nil, model.NewExitError(model.ConfigError, err)
	}

	slot, err := store.OpenSlot(cfg)
	if err != nil {
		return nil, model.NewExitError(model.ConfigError, fmt.Errorf("failed to open %s storage: %w", cfg.Backend, err))
	}
	st := store.NewSettingsStore(slot, model.DefaultSchema(), store.WithKey(cfg.SlotKey()))
	logrus.WithFields(logrus.Fields{
		"backend":  cfg.Backend,
		"location": st.Location(),
	}).Debug("opened settings store")

	return &env{
		cfg:     cfg,
		store:   st,
		session: core.NewSession(st),
		slot:    slot,
	}, nil
}

func (e *env) Close() {
	if closer, ok := e.slot.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logrus.WithError(err).Debug("closing settings slot")
		}
	}
}

// withSession opens the environment, loads the settings and hands both to fn.
func withSession(cmd *cobra.Command, fn func(e *env) error) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()
	e.session.Start()
	return fn(e)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSettings(w io.Writer, format string, settings model.AgentSettings, task string) error {
	if format == "" {
		format = formatJSON
		if isTerminal(w) {
			format = formatSheet
		}
	}
	switch format {
	case formatSheet:
		sheet := render.NewSheet(model.Models)
		sheet.Task = task
		return sheet.Render(w, settings)
	case formatJSON:
		return writeJSON(w, settings)
	case formatYAML:
		data, err := settingsfile.Encode(settings, settingsfile.FormatYAML)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return model.NewExitError(model.UsageError, fmt.Errorf("unknown format %q; use %s, %s or %s", format, formatSheet, formatJSON, formatYAML))
	}
}
