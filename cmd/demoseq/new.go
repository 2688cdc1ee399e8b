package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivlev/demoseq/internal/curve"
	"github.com/ivlev/demoseq/internal/logging"
	"github.com/ivlev/demoseq/internal/project"
	"github.com/ivlev/demoseq/internal/property"
	"github.com/ivlev/demoseq/internal/schema"
	"github.com/ivlev/demoseq/internal/timeline"
)

func newCmd(a *app) *cobra.Command {
	var seconds float64
	var demo bool
	var force bool
	cmd := &cobra.Command{
		Use:   "new NAME",
		Short: "Create a project file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return fmt.Errorf("project name is required")
			}
			path := filepath.Join(a.cfg.ProjectsDir, name+".yaml")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists", path)
			}

			p := project.New(name, int(seconds*float64(a.cfg.FPS)))
			if demo {
				if err := demoScene(p.Timeline, a.reg); err != nil {
					return err
				}
			}
			if err := project.Save(p, path); err != nil {
				return err
			}
			logging.Logger().Info("project created", "path", path, "id", p.ID)
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().Float64Var(&seconds, "seconds", 10, "Project length in seconds")
	cmd.Flags().BoolVar(&demo, "demo", false, "Fill the project with a sample scene")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}

// demoScene lays out a backdrop, a gradient and a tile layer with two
// animations, scaled to the timeline duration.
func demoScene(tl *timeline.Timeline, reg *schema.Registry) error {
	d := tl.Duration
	if d < 10 {
		return fmt.Errorf("demo scene needs at least 10 frames, project has %d", d)
	}
	lookup := func(name string) (*schema.Schema, error) {
		s, ok := reg.ByName(name)
		if !ok {
			return nil, fmt.Errorf("generator %q is not registered", name)
		}
		return s, nil
	}
	backdrop, err := lookup("backdrop")
	if err != nil {
		return err
	}
	gradient, err := lookup("gradient")
	if err != nil {
		return err
	}
	tiles, err := lookup("tiles")
	if err != nil {
		return err
	}

	sky := tl.NewGeneratorClip("sky", backdrop, d)
	src, _ := sky.Generator()
	if err := src.Set(0, 0, property.RGBA{0.05, 0.05, 0.12, 1}, false); err != nil {
		return err
	}

	dawn := tl.NewGeneratorClip("dawn", gradient, d*6/10)
	src, _ = dawn.Generator()
	for _, set := range []struct {
		g, p int
		v    property.Value
	}{
		{0, 0, property.Vec2{0, 1}},
		{0, 1, property.Vec2{0, 0}},
		{0, 2, property.Float(0.1)},
		{1, 0, property.RGB{0.9, 0.4, 0.2}},
		{1, 1, property.RGB{0.2, 0.3, 0.8}},
	} {
		if err := src.Set(set.g, set.p, set.v, false); err != nil {
			return err
		}
	}

	grid := tl.NewGeneratorClip("grid", tiles, d/2)
	src, _ = grid.Generator()
	if err := src.Set(0, 0, property.Vec3{8, 4, 0.1}, false); err != nil {
		return err
	}
	if err := src.Set(0, 1, property.Vec4{0.1, 0.1, 0.8, 0.8}, false); err != nil {
		return err
	}
	if err := src.Set(1, 0, property.Reference(dawn.Ref()), false); err != nil {
		return err
	}

	fadeIn := tl.NewAnimationClip("fade in", sky.Ref(), d/5)
	anim, _ := fadeIn.Animation()
	anim.Properties = []timeline.AnimatedProperty{{
		Group: 0, Property: 1,
		Target: &timeline.Joined{Field: curve.Field{
			Start:    property.Float(1),
			Segments: []curve.Segment{{Duration: d / 5, End: property.Float(0), Interp: curve.EaseInOut}},
		}},
	}}

	spin := tl.NewAnimationClip("spin", grid.Ref(), d/2)
	anim, _ = spin.Animation()
	angle := timeline.NewSeparate(property.Rotation(property.IdentityQuat()))
	angle.Fields[2].Segments = []curve.Segment{{Duration: d / 2, End: property.Float(90), Interp: curve.Linear{}}}
	anim.Properties = []timeline.AnimatedProperty{{Group: 0, Property: 2, Target: angle}}

	placements := []struct {
		track int
		clip  timeline.Clip
		start int
	}{
		{0, sky, 0},
		{1, dawn, d / 10},
		{2, grid, d / 5},
		{3, fadeIn, 0},
		{3, spin, d / 5},
	}
	for _, pl := range placements {
		if _, err := tl.AddClip(pl.track, pl.clip, pl.start); err != nil {
			return fmt.Errorf("placing %s: %w", pl.clip.Name, err)
		}
	}
	return nil
}
