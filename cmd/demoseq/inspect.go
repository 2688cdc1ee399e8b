package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ivlev/demoseq/internal/export"
	"github.com/ivlev/demoseq/internal/project"
	"github.com/ivlev/demoseq/internal/schema"
	"github.com/ivlev/demoseq/internal/timeline"
)

func inspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [FILE]",
		Short: "List the tracks and clips of a project or exported binary",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.projectArg(args)
			if err != nil {
				return err
			}
			tl, diags, err := openTimeline(path, a.reg)
			if err != nil {
				return err
			}
			printTimeline(cmd.OutOrStdout(), tl)
			for _, d := range diags {
				cmd.PrintErrln(warnStyle.Render("warning:"), d)
			}
			return nil
		},
	}
}

// openTimeline loads a project file, or decodes an exported .bin.
func openTimeline(path string, reg *schema.Registry) (*timeline.Timeline, []error, error) {
	if strings.EqualFold(filepath.Ext(path), ".bin") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		tl, err := export.Decode(data, reg)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
		return tl, nil, nil
	}

	res, err := project.Load(path, reg)
	if err != nil {
		return nil, nil, err
	}
	return res.Project.Timeline, res.Diagnostics, nil
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

func printTimeline(w io.Writer, tl *timeline.Timeline) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("duration %d frames, %d tracks", tl.Duration, len(tl.Tracks))))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TRACK\tSTART\tEND\tID\tNAME\tKIND")
	for _, p := range tl.Placements() {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%s\t%s\n", p.Track, p.Start, p.End(), p.Clip.ID, p.Clip.Name, clipKind(tl, p.Clip))
	}
	tw.Flush()
}

func clipKind(tl *timeline.Timeline, c *timeline.Clip) string {
	if c.Schema != nil {
		return c.Schema.Name
	}
	anim, ok := c.Animation()
	if !ok {
		return "?"
	}
	target, ok := tl.Resolve(anim.Target)
	if !ok {
		return fmt.Sprintf("animation (%d properties, no target)", len(anim.Properties))
	}
	return fmt.Sprintf("animation -> %s (%d properties)", target.Clip.Name, len(anim.Properties))
}
