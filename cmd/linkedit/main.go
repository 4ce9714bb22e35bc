// Command linkedit is a TUI editor for linkgraph diagrams.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ha1tch/linkgraph/pkg/config"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath, logPath string

	cmd := &cobra.Command{
		Use:          "linkedit [file]",
		Short:        "Edit a linkgraph diagram in the terminal",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			log, err := newLogger(logPath)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ed := newEditor(cfg, log)
			if len(args) == 1 {
				ed.filename = args[0]
				if err := ed.loadFile(ed.filename); err != nil && !errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("loading %s: %w", ed.filename, err)
				}
			}

			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("creating screen: %w", err)
			}
			if err := screen.Init(); err != nil {
				return fmt.Errorf("initializing screen: %w", err)
			}
			defer screen.Fini()
			screen.EnableMouse()
			screen.Clear()

			ed.screen = screen
			ed.run()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default "+config.Path()+")")
	cmd.Flags().StringVar(&logPath, "log", "", "write debug log to this file")
	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

// newLogger logs to a file, since the terminal belongs to the editor.
func newLogger(path string) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	return cfg.Build()
}
