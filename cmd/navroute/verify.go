package main

import (
	"slices"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/vango-dev/navroute/pkg/manifest"
)

func verifyCmd(flags *globalFlags) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the route manifest",
		Long: `Load, validate and compile the route manifest.

Reports decoding errors with their location, invalid entries,
conflicting keys and malformed route trees.

Examples:
  navroute verify
  navroute verify --manifest=routes.toml --list
  navroute verify --manifest=s3://site-config/routes.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			m, _, err := loadSite(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			success(w, "%s: %d routes", cfg.ManifestLocation(), len(m.Routes))
			if list {
				printRoutes(cmd, m)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "List routes")

	return cmd
}

func printRoutes(cmd *cobra.Command, m *manifest.Manifest) {
	keys := make([]string, 0, len(m.Routes))
	for k := range m.Routes {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"route", "kind"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	for _, k := range keys {
		table.Append([]string{k, describeEntry(m.Routes[k])})
	}
	table.Render()
}

func describeEntry(e manifest.Entry) string {
	var parts []string
	switch {
	case e.Redirect != "":
		s := "redirect " + e.Redirect
		if e.Replace {
			s += " (replace)"
		}
		parts = append(parts, s)
	case e.Layout != "":
		parts = append(parts, "layout")
	default:
		parts = append(parts, "content")
	}
	if g := e.Guard; g != nil {
		parts = append(parts, "guard ?"+g.Query+" else "+g.Redirect)
	}
	return strings.Join(parts, ", ")
}
