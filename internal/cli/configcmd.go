package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nethoundsh/dedupe/internal/config"
	"github.com/nethoundsh/dedupe/pkg/fileinfo"
	"github.com/nethoundsh/dedupe/pkg/preserve"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Config management",
	}
	cmd.AddCommand(newConfigShowCmd(a), newConfigSaveCmd(a), newConfigValidateCmd(a), newConfigPathCmd(a))
	return cmd
}

func (a *app) resolvedConfigPath() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	return config.DefaultPath()
}

func newConfigPathCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.resolvedConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(a.cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newConfigSaveCmd(a *app) *cobra.Command {
	var (
		policy     string
		include    []string
		exclude    []string
		minSize    string
		autoPrompt bool
	)
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Persist option changes to the config file",
		Long:  "Apply the given options to the loaded configuration and write it back.",
		Example: "  dedupe config save --preserve modified-last --exclude directory,empty\n" +
			"  dedupe config save --include unique --min-size 1MB",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if policy != "" {
				p, err := preserve.ParsePolicy(policy)
				if err != nil {
					return err
				}
				cfg.PreservePolicy = uint8(p)
			}
			for _, name := range include {
				if err := setInclude(&cfg.Include, name, true); err != nil {
					return err
				}
			}
			for _, name := range exclude {
				if err := setInclude(&cfg.Include, name, false); err != nil {
					return err
				}
			}
			if minSize != "" {
				size, err := fileinfo.ParseSize(minSize)
				if err != nil {
					return fmt.Errorf("invalid --min-size %q: %w", minSize, err)
				}
				cfg.MinSize, cfg.MinSizeStr = size, minSize
			}
			if cmd.Flags().Changed("auto-prompt") {
				cfg.AutoPrompt = autoPrompt
			}

			path, err := a.resolvedConfigPath()
			if err != nil {
				return err
			}
			if err := cfg.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", path)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&policy, "preserve", "p", "", "Preserve policy: "+strings.Join(preserve.Names(), ", "))
	f.StringSliceVar(&include, "include", nil, "Result types to list: empty, directory, duplicate, unique")
	f.StringSliceVar(&exclude, "exclude", nil, "Result types to drop: empty, directory, duplicate, unique")
	f.StringVar(&minSize, "min-size", "", "Hide files smaller than this")
	f.BoolVar(&autoPrompt, "auto-prompt", true, "Ask before auto dedupe trashes anything")
	return cmd
}

func setInclude(in *config.IncludeConfig, name string, on bool) error {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "empty":
		in.Empty = on
	case "directory", "directories", "dir":
		in.Directory = on
	case "duplicate", "duplicates", "group":
		in.Duplicate = on
	case "unique":
		in.Unique = on
	default:
		return fmt.Errorf("unknown result type %q; must be empty, directory, duplicate or unique", name)
	}
	return nil
}

func newConfigValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := a.resolvedConfigPath()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(cfgPath)
			if err != nil {
				return fmt.Errorf("failed to read config file %q: %w", cfgPath, err)
			}

			out := cmd.OutOrStdout()
			_, warnings := config.LoadAndValidate(data)
			if len(warnings) == 0 {
				fmt.Fprintf(out, "Config OK (%s)\n", cfgPath)
				return nil
			}

			fmt.Fprintf(out, "Found %d warning(s) in %s:\n", len(warnings), cfgPath)
			for _, w := range warnings {
				if w.Field != "" {
					fmt.Fprintf(out, "  [%s] %s\n", w.Field, w.Message)
				} else {
					fmt.Fprintf(out, "  %s\n", w.Message)
				}
				if w.Suggestion != "" {
					fmt.Fprintf(out, "    suggestion: %s\n", w.Suggestion)
				}
			}
			return nil
		},
	}
}
