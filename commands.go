package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tweakplay/color"
	"tweakplay/theme"
)

func themeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Inspect the style registry",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered themes with their swatches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			themes, err := commandThemes(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			styled := isTerminal(out)
			for _, s := range theme.NewHandler(themes).Summaries() {
				fmt.Fprintln(out, renderSummary(s, styled))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "css <name>",
		Short: "Print the generated CSS of a theme",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			themes, err := commandThemes(cmd)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), themes.CSS(args[0]))
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "detect [file]",
		Short: "Name the theme a CSS file was generated from (reads stdin without a file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			themes, err := commandThemes(cmd)
			if err != nil {
				return err
			}
			var css []byte
			if len(args) == 0 || args[0] == "-" {
				css, err = io.ReadAll(cmd.InOrStdin())
			} else {
				css, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read css: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), themes.Detect(string(css)))
			return nil
		},
	})

	return cmd
}

func colorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "color",
		Short: "Color format tools",
	}

	var format string
	convert := &cobra.Command{
		Use:   "convert <value>",
		Short: "Convert a color between hex, rgb, hsl and oklch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if cmd.Flags().Changed("format") {
				f, ok := color.ParseFormat(format)
				if !ok {
					return fmt.Errorf("unknown format %q", format)
				}
				fmt.Fprintln(out, color.Convert(args[0], f))
				return nil
			}
			for _, f := range color.Formats {
				fmt.Fprintf(out, "%-6s %s\n", f, color.Convert(args[0], f))
			}
			return nil
		},
	}
	convert.Flags().StringVar(&format, "format", "", "Target format: hex, rgb, hsl or oklch (default: all)")
	cmd.AddCommand(convert)

	return cmd
}

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear cached edits",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List cached edit snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			cache, closeCache, err := openCache(cfg, log)
			if err != nil {
				return err
			}
			defer closeCache()

			out := cmd.OutOrStdout()
			entries := cache.Entries()
			if len(entries) == 0 {
				fmt.Fprintln(out, "no cached edits")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%-48s %3d files  %s\n", e.Key, e.Files, humanize.Bytes(uint64(e.Bytes)))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached edit snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			cache, closeCache, err := openCache(cfg, log)
			if err != nil {
				return err
			}
			defer closeCache()

			n := cache.ClearAll()
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %s %s\n", humanize.Comma(int64(n)), plural(n, "entry", "entries"))
			return nil
		},
	})

	return cmd
}

func commandThemes(cmd *cobra.Command) (*theme.Registry, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	return loadThemes(cfg, log)
}

var (
	nameStyle  = lipgloss.NewStyle().Bold(true).Width(16)
	labelStyle = lipgloss.NewStyle().Faint(true)
)

func renderSummary(s theme.StyleSummary, styled bool) string {
	colors := []string{s.Swatches.Primary, s.Swatches.Secondary, s.Swatches.Accent, s.Swatches.Destructive}
	if !styled {
		return fmt.Sprintf("%-16s %-20s %s", s.Name, s.Display, strings.Join(colors, " "))
	}

	var b strings.Builder
	for _, c := range colors {
		b.WriteString(lipgloss.NewStyle().Background(lipgloss.Color(c)).Render("   "))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, nameStyle.Render(s.Name), b.String(), " ", labelStyle.Render(s.Display))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
