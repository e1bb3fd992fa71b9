package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hamidzr/surferh/examples"
	"github.com/hamidzr/surferh/internal/check"
	"github.com/hamidzr/surferh/model"
	"github.com/hamidzr/surferh/pkg/settingsfile"
	"github.com/hamidzr/surferh/store"
)

func newShowCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: sheet, json or yaml (default sheet on a terminal, json otherwise)")
	return cmd
}

func runShow(cmd *cobra.Command, format string) error {
	return withSession(cmd, func(e *env) error {
		return writeSettings(cmd.OutOrStdout(), format, e.session.Settings(), e.session.Task())
	})
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <field>",
		Short: "Print a single setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(e *env) error {
				value, err := e.session.Settings().Field(args[0])
				if err != nil {
					return usageError(err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			})
		},
	}
}

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <field> <value>",
		Short: "Change a setting and save it",
		Long: `Change a setting and save it. Fields are addressed by their stored name
(max_n_steps) or camelCase name (maxNSteps). Model fields take a model token
or a registry name such as GPT4_1.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, raw := args[0], args[1]
			return withSession(cmd, func(e *env) error {
				if f, ok := model.LookupField(key); ok && f.Kind == model.KindModel {
					if entry, found := e.store.Schema().Models.Lookup(raw); found {
						raw = string(entry.Token)
					}
				}
				if err := e.session.SetString(key, raw); err != nil {
					return usageError(err)
				}
				value, _ := e.session.Settings().Field(key)
				fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", key, value)
				return nil
			})
		},
	}
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore and save the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(e *env) error {
				if _, err := e.session.Reset(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "settings reset to defaults")
				return nil
			})
		},
	}
}

func newExampleCmd() *cobra.Command {
	var method string
	cmd := &cobra.Command{
		Use:   "example [number|query]",
		Short: "List the example tasks, or pick one, point the starting URL at it and show the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			all := examples.All()
			if len(args) == 0 {
				for i, ex := range all {
					fmt.Fprintf(out, "%d. %s\n   %s\n", i+1, ex.Task, ex.URL)
				}
				return nil
			}

			query := strings.Join(args, " ")
			var picked examples.Example
			if n, err := strconv.Atoi(query); err == nil {
				if n < 1 || n > len(all) {
					return usageError(fmt.Errorf("example %d does not exist; pick 1-%d", n, len(all)))
				}
				picked = all[n-1]
			} else {
				best, ok, err := examples.Best(method, query)
				if err != nil {
					return usageError(err)
				}
				if !ok {
					return usageError(fmt.Errorf("no example task matches %q", query))
				}
				picked = best
			}

			return withSession(cmd, func(e *env) error {
				if _, err := e.session.SelectExample(picked.Task); err != nil {
					return err
				}
				return writeSettings(out, formatSheet, e.session.Settings(), e.session.Task())
			})
		},
	}
	cmd.Flags().StringVarP(&method, "search-method", "s", examples.DefaultSearchMethod, "Search method: direct, fuzzy or words")
	return cmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the stored settings record without changing it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			out := cmd.OutOrStdout()

			raw, err := e.store.ReadRaw()
			if errors.Is(err, store.ErrNotFound) || (err == nil && strings.TrimSpace(raw) == "") {
				fmt.Fprintf(out, "no settings stored at %s; defaults apply\n", e.store.Location())
				return nil
			}
			if err != nil {
				return err
			}

			checker, err := check.NewChecker(e.store.Schema())
			if err != nil {
				return err
			}
			report, err := checker.Check([]byte(raw))
			if err != nil {
				return err
			}
			if report.Valid {
				fmt.Fprintf(out, "settings at %s are valid\n", e.store.Location())
				return nil
			}
			for _, issue := range report.Issues {
				fmt.Fprintln(out, issue)
			}
			return model.NewExitError(model.SettingsInvalid,
				fmt.Errorf("%d issue(s) in %s; loading falls back to defaults for bad model values", len(report.Issues), e.store.Location()))
		},
	}
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the settings with the contents of a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(e *env) error {
				imported, err := settingsfile.Import(args[0], e.store.Schema())
				if err != nil {
					return err
				}
				if err := e.session.Update(func(s *model.AgentSettings) error {
					*s = imported
					return nil
				}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported settings from %s\n", args[0])
				return nil
			})
		},
	}
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file|->",
		Short: "Write the settings to a YAML or JSON file, or YAML to stdout with -",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(e *env) error {
				if args[0] == "-" {
					return writeSettings(cmd.OutOrStdout(), formatYAML, e.session.Settings(), "")
				}
				if err := settingsfile.Export(args[0], e.session.Settings()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported settings to %s\n", args[0])
				return nil
			})
		},
	}
}

func newRequestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "request <task>",
		Short: "Print the start-agent payload for a task using the current settings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(e *env) error {
				settings := e.session.Settings()
				logrus.WithFields(logrus.Fields{
					"navigation":   model.ProviderFor(settings.NavigationModel),
					"localization": model.ProviderFor(settings.LocalizationModel),
					"validation":   model.ProviderFor(settings.ValidationModel),
				}).Debug("model providers")
				return writeJSON(cmd.OutOrStdout(), e.session.StartRequest(strings.Join(args, " ")))
			})
		},
	}
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the settings every time another process changes them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return withSession(cmd, func(e *env) error {
				out := cmd.OutOrStdout()
				if err := writeJSON(out, e.session.Settings()); err != nil {
					return err
				}
				err := e.session.Watch(ctx, e.cfg.WatchDebounce, func(settings model.AgentSettings) {
					_ = writeJSON(out, settings)
				})
				if errors.Is(err, store.ErrWatchUnsupported) {
					return usageError(fmt.Errorf("%w; watching needs the %s backend", err, model.BackendFile))
				}
				return err
			})
		},
	}
}

func newPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the settings are stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			fmt.Fprintln(cmd.OutOrStdout(), e.store.Location())
			return nil
		},
	}
}

func usageError(err error) error {
	var unknown *model.UnknownFieldError
	if errors.As(err, &unknown) {
		keys := make([]string, 0, len(model.Fields))
		for _, f := range model.Fields {
			keys = append(keys, f.Key)
		}
		err = fmt.Errorf("%w; known fields: %s", err, strings.Join(keys, ", "))
	}
	return model.NewExitError(model.UsageError, err)
}
