package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/josephlewis42/mush/core"
	"github.com/josephlewis42/mush/core/config"
	"github.com/josephlewis42/mush/core/interrupt"
	"github.com/josephlewis42/mush/core/logger"
	"github.com/josephlewis42/mush/core/vos"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// exitStatus is returned by a command that already reported its failure.
type exitStatus int

func (e exitStatus) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

type rootOptions struct {
	cfgPath      string
	parseOnly    bool
	listBuiltins bool
}

func loadConfig(path string) (*config.Configuration, error) {
	configuration, err := config.Load(afero.NewOsFs(), path)
	if err != nil {
		return nil, fmt.Errorf("couldn't load config: %w", err)
	}
	return configuration, nil
}

func newRootCmd() *cobra.Command {
	var opts rootOptions

	rootCmd := &cobra.Command{
		Use:   "mush [file]",
		Short: "Minimal pipeline shell",
		Long: `Reads command lines from file, or standard input when no file is given, and
runs each as a pipeline of programs connected by pipes.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			if opts.listBuiltins {
				return printBuiltins(cmd.OutOrStdout())
			}
			return runShell(opts, args)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&opts.cfgPath, "config", config.DefaultPath, "config path")
	flags.BoolVar(&opts.parseOnly, "parse-only", false, "describe each pipeline instead of running it")
	flags.BoolVar(&opts.listBuiltins, "builtins", false, "list the builtin commands and exit")

	return rootCmd
}

func runShell(opts rootOptions, args []string) error {
	configuration, err := loadConfig(opts.cfgPath)
	if err != nil {
		return err
	}

	// Stages always inherit the process's stdin; a script file only supplies
	// command lines.
	var input io.Reader = os.Stdin
	interactive := true
	if len(args) == 1 {
		fd, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer fd.Close()
		input = fd
		interactive = false
	}

	log, err := logger.New(logger.Config{
		Level:      configuration.LogLevel,
		OutputPath: configuration.EventLog,
	})
	if err != nil {
		return err
	}
	defer log.Sync()

	interrupts := interrupt.New(os.Stdout)
	interrupts.Install()
	defer interrupts.Close()

	sh, err := core.NewShell(vos.NewHostOS(os.Stdin), input, configuration, interrupts, log, interactive)
	if err != nil {
		return err
	}
	sh.ParseOnly = opts.parseOnly

	if status := sh.Run(); status != 0 {
		return exitStatus(status)
	}
	return nil
}

// Execute runs the root command and exits with its status.
// This is called by main.main().
func Execute() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		var status exitStatus
		if errors.As(err, &status) {
			os.Exit(int(status))
		}
		fmt.Fprintf(rootCmd.ErrOrStderr(), "mush: %v\n", err)
		os.Exit(1)
	}
}
