package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/navroute/internal/config"
	"github.com/vango-dev/navroute/internal/errors"
)

const sampleManifest = `# Route manifest. Keys are paths; "*" matches one segment.
maxRedirects: 10
notFound: { content: "Not found" }
routes:
  "/": { content: "Home" }
  "/docs": { layout: "<docs>{{next}}</docs>", content: "Docs index" }
  "/docs/*": { content: "Doc {{param0}}" }
  "/old-docs": { redirect: "/docs", replace: true }
`

func initCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create navroute.json and a sample manifest",
		Long: `Create navroute.json and routes.yaml in the given directory
(default: the working directory).

Examples:
  navroute init
  navroute init site --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing files")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	w := cmd.OutOrStdout()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Newf(errors.CategoryCLI, "create %s", dir).Wrap(err)
	}
	if config.Exists(dir) && !force {
		return errors.Newf(errors.CategoryCLI, "%s already exists in %s", config.ConfigFileName, dir).
			WithSuggestion("Use --force to overwrite it")
	}

	cfg := config.New()
	if err := cfg.SaveTo(filepath.Join(dir, config.ConfigFileName)); err != nil {
		return err
	}
	success(w, "Created %s", cfg.Path())

	manifestPath := filepath.Join(dir, cfg.Manifest)
	if _, err := os.Stat(manifestPath); err == nil && !force {
		warn(w, "Kept existing %s", manifestPath)
		return nil
	}
	if err := os.WriteFile(manifestPath, []byte(sampleManifest), 0644); err != nil {
		return errors.Newf(errors.CategoryCLI, "write %s", manifestPath).Wrap(err)
	}
	success(w, "Created %s", manifestPath)
	info(w, "Run 'navroute verify' to check it")
	return nil
}
