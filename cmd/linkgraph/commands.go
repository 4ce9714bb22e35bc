package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ha1tch/linkgraph/pkg/config"
	"github.com/ha1tch/linkgraph/pkg/diagram"
	"github.com/ha1tch/linkgraph/pkg/render"
)

func infoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Show nodes, links and branches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.load(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			d := e.Diagram()

			shapes := make(map[diagram.Shape]int)
			for _, n := range d.Nodes() {
				shapes[n.Shape]++
			}
			var plain, branches, ybranches int
			for _, l := range d.Links() {
				switch {
				case l.IsBranch():
					branches++
				case l.IsYBranch():
					ybranches++
				default:
					plain++
				}
			}

			fmt.Fprintf(w, "%s  %s\n", brand.Sprintf("%-10s", "File"), args[0])
			fmt.Fprintf(w, "%s  %d (%s)\n", brand.Sprintf("%-10s", "Nodes"), len(d.Nodes()), shapeSummary(shapes))
			fmt.Fprintf(w, "%s  %d\n", brand.Sprintf("%-10s", "Links"), plain)
			fmt.Fprintf(w, "%s  %d\n", brand.Sprintf("%-10s", "Branches"), branches)
			fmt.Fprintf(w, "%s  %d\n", brand.Sprintf("%-10s", "Y-links"), ybranches)

			if len(d.Links()) == 0 {
				return nil
			}
			fmt.Fprintln(w)
			for _, l := range d.Links() {
				from := l.SourceID
				if ca := l.Curve(); ca != nil {
					from = fmt.Sprintf("%s@%.2f", ca.ParentID, ca.T)
				}
				ctrl := l.Control.Kind.String()
				if l.Control.Kind == diagram.ControlOffset {
					ctrl += " " + l.Control.Offset.String()
				}
				fmt.Fprintf(w, "  %-12s %s -> %s  %s\n", l.ID, from, l.TargetID, subtle.Sprint(ctrl))
			}
			return nil
		},
	}
}

func shapeSummary(shapes map[diagram.Shape]int) string {
	if len(shapes) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(shapes))
	for s, n := range shapes {
		parts = append(parts, fmt.Sprintf("%d %s", n, s))
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

func validateCmd(a *app) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Report dangling links and orphaned branches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.load(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			report := e.Validate()
			if report.OK() {
				good.Fprintf(w, "✓ %s is valid\n", args[0])
				return nil
			}
			for _, id := range report.Dangling {
				bad.Fprintf(w, "✗ %s: source or target node missing\n", id)
			}
			for _, id := range report.Static {
				warn.Fprintf(w, "! %s: parent link missing, anchor is static\n", id)
			}

			if !write {
				return fmt.Errorf("%d dangling links, %d static branches", len(report.Dangling), len(report.Static))
			}
			e.Cleanup()
			if err := diagram.WriteFile(args[0], e.Diagram()); err != nil {
				return err
			}
			good.Fprintf(w, "✓ removed %d dangling links\n", len(report.Dangling))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "remove dangling links and save the file")
	return cmd
}

func convertCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Convert between JSON and YAML by file extension",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.load(args[0])
			if err != nil {
				return err
			}
			if err := diagram.WriteFile(args[1], e.Diagram()); err != nil {
				return err
			}
			a.log.Debug("converted", zap.String("from", args[0]), zap.String("to", args[1]))
			good.Fprintf(cmd.OutOrStdout(), "✓ wrote %s\n", args[1])
			return nil
		},
	}
}

func renderCmd(a *app) *cobra.Command {
	var (
		width, height int
		title         string
		handles       bool
	)
	cmd := &cobra.Command{
		Use:   "render <in> <out.png|out.svg|out.dot>",
		Short: "Export a diagram as PNG, SVG or Graphviz DOT",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.load(args[0])
			if err != nil {
				return err
			}
			if width <= 0 {
				width = a.cfg.Render.Width
			}
			if height <= 0 {
				height = a.cfg.Render.Height
			}

			out := args[1]
			switch ext := strings.ToLower(filepath.Ext(out)); ext {
			case ".png":
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				opts := render.DefaultOptions()
				opts.Width, opts.Height = width, height
				opts.Padding = a.cfg.Render.Padding
				opts.ShowHandles = handles
				if err := render.PNG(e, f, opts); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
			case ".svg":
				opts := render.DefaultSVGOptions()
				opts.Width, opts.Height = width, height
				opts.Padding = a.cfg.Render.Padding
				opts.Title = title
				opts.ShowHandles = handles
				if err := os.WriteFile(out, []byte(render.SVG(e, opts)), 0644); err != nil {
					return err
				}
			case ".dot", ".gv":
				if err := os.WriteFile(out, []byte(render.DOT(e, title)), 0644); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown output format %q (want .png, .svg or .dot)", ext)
			}
			good.Fprintf(cmd.OutOrStdout(), "✓ wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", 0, "image width (default from config)")
	cmd.Flags().IntVar(&height, "height", 0, "image height (default from config)")
	cmd.Flags().StringVar(&title, "title", "", "diagram title (SVG and DOT)")
	cmd.Flags().BoolVar(&handles, "handles", false, "mark control points")
	return cmd
}

func configCmd(a *app) *cobra.Command {
	var initFile bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(initFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if initFile {
				path := a.configPath
				if path == "" {
					path = config.Path()
				}
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists", path)
				}
				if err := config.Save(path, config.Default()); err != nil {
					return err
				}
				good.Fprintf(w, "✓ wrote %s\n", path)
				return nil
			}
			subtle.Fprintf(w, "# %s\n", configSource(a.configPath))
			return config.Encode(w, a.cfg)
		},
	}
	cmd.Flags().BoolVar(&initFile, "init", false, "write a default config file")
	return cmd
}

func configSource(path string) string {
	if path != "" {
		return path
	}
	if _, err := os.Stat(config.Path()); err == nil {
		return config.Path()
	}
	return "built-in defaults"
}
