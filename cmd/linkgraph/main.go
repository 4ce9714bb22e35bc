// Command linkgraph is the command-line companion to the linkedit editor.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ha1tch/linkgraph/pkg/config"
	"github.com/ha1tch/linkgraph/pkg/diagram"
	"github.com/ha1tch/linkgraph/pkg/topology"
)

var version = "0.1.0"

// Output colors
var (
	brand  = color.New(color.FgHiGreen, color.Bold)
	subtle = color.New(color.FgHiBlack)
	warn   = color.New(color.FgYellow)
	good   = color.New(color.FgGreen)
	bad    = color.New(color.FgRed)
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	verbose    bool

	cfg *config.Config
	log *zap.Logger
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		bad.Fprintf(os.Stderr, "linkgraph: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "linkgraph",
		Short:         "Tools for linkgraph diagrams",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(false)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}
	cmd.SetVersionTemplate("linkgraph {{ .Version }}\n")
	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default "+config.Path()+")")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log engine activity to stderr")

	cmd.AddCommand(
		infoCmd(a),
		validateCmd(a),
		convertCmd(a),
		renderCmd(a),
		configCmd(a),
	)
	return cmd
}

// setup loads config and creates the logger. With allowMissing, an explicit
// config path that does not exist yet yields defaults.
func (a *app) setup(allowMissing bool) error {
	var err error
	if a.configPath == "" {
		a.cfg, err = config.Load()
	} else {
		a.cfg, err = config.LoadFile(a.configPath)
		if allowMissing && errors.Is(err, fs.ErrNotExist) {
			a.cfg, err = config.Default(), nil
		}
	}
	if err != nil {
		return err
	}

	a.log = zap.NewNop()
	if a.verbose {
		if a.log, err = zap.NewDevelopment(); err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
	}
	return nil
}

// load reads a diagram and wraps it in an engine configured from a.cfg.
func (a *app) load(path string) (*topology.Engine, error) {
	d, err := diagram.ReadFile(path)
	if err != nil {
		return nil, err
	}
	e := topology.New(d, topology.Options{
		Params:      a.cfg.Curve,
		OffsetLimit: a.cfg.Branch.OffsetLimit,
		Logger:      a.log.Named("topology"),
	})
	if n := e.DeriveMissingAnchors(); n > 0 {
		a.log.Debug("derived branch anchors", zap.Int("count", n), zap.String("file", path))
	}
	return e, nil
}
