package main

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/navroute/internal/config"
	"github.com/vango-dev/navroute/internal/errors"
	"github.com/vango-dev/navroute/internal/server"
	"github.com/vango-dev/navroute/pkg/manifest"
	"github.com/vango-dev/navroute/pkg/nav"
	"github.com/vango-dev/navroute/pkg/resolve"
	"github.com/vango-dev/navroute/pkg/route"
)

func resolveCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "resolve <href>...",
		Short: "Resolve locations against the route manifest",
		Long: `Resolve one or more locations and print the resolved value,
the canonical location and the redirects followed.

Examples:
  navroute resolve /docs/intro
  navroute resolve "/admin?token=s3cret" /old --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			m, tree, err := loadSite(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return runResolve(cmd, cfg, m, tree, args, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print one JSON object per location")

	return cmd
}

func runResolve(cmd *cobra.Command, cfg *config.Config, m *manifest.Manifest, tree route.Node[string], hrefs []string, asJSON bool) error {
	var last *resolve.Report
	opts := m.ResolverOptions()
	if cfg.MaxRedirects > 0 {
		opts = append(opts, resolve.WithMaxRedirects(cfg.MaxRedirects))
	}
	opts = append(opts, resolve.WithMiddleware(resolve.MiddlewareFunc(
		func(ctx context.Context, target *nav.Opts, next resolve.Handler) (*resolve.Report, error) {
			report, err := next(ctx)
			last = report
			return report, err
		},
	)))
	r := resolve.New[string](opts...)

	w := cmd.OutOrStdout()
	failed := 0
	for _, href := range hrefs {
		target, err := nav.Parse(href)
		if err != nil {
			failed++
			errors.Fprint(cmd.ErrOrStderr(), server.LocationError(href, err))
			continue
		}

		last = nil
		res, err := r.Resolve(cmd.Context(), tree, target, m.NotFoundResolver())
		if err != nil {
			failed++
			errors.Fprint(cmd.ErrOrStderr(), server.ResolutionError(err))
			continue
		}

		var visited []string
		notFound := false
		if last != nil {
			notFound = last.NotFound
			for _, o := range last.Visited {
				visited = append(visited, o.Href())
			}
		}

		if asJSON {
			json.NewEncoder(w).Encode(server.ResolveResponse{
				Href:      target.Href(),
				Canonical: res.Opts.Href(),
				Value:     res.Value,
				Replace:   res.Opts.Replace(),
				Params:    res.Opts.Params(),
				Visited:   visited,
				NotFound:  notFound,
			})
			continue
		}

		head := target.Href()
		if c := res.Opts.Href(); c != head {
			head += " → " + c
		}
		if res.Opts.Replace() {
			head += " (replace)"
		}
		if notFound {
			head += " (not found)"
		}
		success(w, "%s", head)
		info(w, "value: %s", res.Value)
		if len(visited) > 1 {
			info(w, "redirects: %s", strings.Join(visited, " -> "))
		}
		if p := res.Opts.Params(); len(p) > 0 {
			info(w, "params: %s", strings.Join(p, ", "))
		}
	}

	if failed > 0 {
		return errors.Newf(errors.CategoryResolution, "%d of %d locations failed to resolve", failed, len(hrefs))
	}
	return nil
}
