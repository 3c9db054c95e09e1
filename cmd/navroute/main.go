package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/navroute/internal/config"
	"github.com/vango-dev/navroute/internal/errors"
	"github.com/vango-dev/navroute/pkg/manifest"
	"github.com/vango-dev/navroute/pkg/route"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalFlags are shared by every command.
type globalFlags struct {
	config   string
	manifest string
	noColor  bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "navroute",
		Short: "Route manifests for single-page navigation",
		Long: `navroute resolves browser locations against a route manifest.

A manifest maps paths to content, layouts, redirects and guards.
navroute can check a manifest, resolve locations from the command
line, and serve resolution to browsers over a history socket.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flags.noColor {
				errors.DisableColors()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "Path to navroute.json (default: search from the working directory)")
	rootCmd.PersistentFlags().StringVarP(&flags.manifest, "manifest", "m", "", "Route manifest path or s3:// URI (overrides navroute.json)")
	rootCmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		initCmd(),
		verifyCmd(flags),
		resolveCmd(flags),
		serveCmd(flags),
		versionCmd(),
	)
	return rootCmd
}

// loadConfig reads navroute.json and applies the --manifest override. Without
// a config file, --manifest alone is enough.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.config != "" {
		cfg, err = config.LoadFile(flags.config)
	} else {
		cfg, err = config.LoadFromWorkingDir()
		var coded *errors.Error
		if err != nil && flags.manifest != "" && stderrors.As(err, &coded) && coded.Code == errors.ConfigNotFound {
			cfg, err = config.New(), nil
		}
	}
	if err != nil {
		return nil, err
	}

	if m := flags.manifest; m != "" {
		if !strings.HasPrefix(m, "s3://") && !filepath.IsAbs(m) {
			if abs, err := filepath.Abs(m); err == nil {
				m = abs
			}
		}
		cfg.Manifest = m
	}
	return cfg, nil
}

// loadSite loads and compiles the configured manifest.
func loadSite(ctx context.Context, cfg *config.Config) (*manifest.Manifest, *route.Branch[string], error) {
	var opts []manifest.OpenOption
	if cfg.AWS.Region != "" {
		opts = append(opts, manifest.WithRegion(cfg.AWS.Region))
	}
	src, err := manifest.Open(ctx, cfg.ManifestLocation(), opts...)
	if err != nil {
		return nil, nil, err
	}
	return manifest.LoadTree(ctx, src)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
