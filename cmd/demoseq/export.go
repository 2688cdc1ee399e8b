package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/demoseq/internal/config"
	"github.com/ivlev/demoseq/internal/export"
	"github.com/ivlev/demoseq/internal/logging"
	"github.com/ivlev/demoseq/internal/project"
	"github.com/ivlev/demoseq/internal/schema"
	"github.com/ivlev/demoseq/internal/system"
)

type exportOptions struct {
	outDir  string
	qr      bool
	strict  bool
	workers int
}

// exported describes one written artifact.
type exported struct {
	Source      string
	Path        string
	Size        int
	SHA256      string
	Diagnostics int
}

func exportCmd(a *app) *cobra.Command {
	var opts exportOptions
	cmd := &cobra.Command{
		Use:   "export [PROJECT...]",
		Short: "Write the binary timeline of one or more projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := args
			if len(paths) == 0 {
				latest, err := findLatest(a.cfg.ProjectsDir)
				if err != nil {
					return err
				}
				paths = []string{latest}
			}
			opts.workers = a.cfg.Workers

			results, err := exportAll(cmd.Context(), paths, a.reg, opts)
			for _, r := range results {
				if r.Path != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %d bytes\n", r.SHA256, r.Path, r.Size)
				}
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&opts.outDir, "out-dir", "o", "", "Output directory (default: next to each project)")
	cmd.Flags().BoolVar(&opts.qr, "qr", false, "Also write a QR code of each artifact's SHA-256")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail when a project loads with diagnostics")
	return cmd
}

// exportAll exports every path concurrently. Results keep the order of
// paths; the first failure cancels the rest.
func exportAll(ctx context.Context, paths []string, reg *schema.Registry, opts exportOptions) ([]exported, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]exported, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.workers, 1))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := exportFile(path, reg, opts)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	return results, g.Wait()
}

func exportFile(path string, reg *schema.Registry, opts exportOptions) (exported, error) {
	res, err := project.Load(path, reg)
	if err != nil {
		return exported{}, err
	}
	if opts.strict && len(res.Diagnostics) > 0 {
		return exported{}, fmt.Errorf("%s: %d diagnostics: %w", path, len(res.Diagnostics), res.Diagnostics[0])
	}

	data, err := export.Encode(res.Project.Timeline)
	if err != nil {
		return exported{}, fmt.Errorf("%s: %w", path, err)
	}

	out := artifactPath(path, opts.outDir)
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return exported{}, fmt.Errorf("writing %s: %w", out, err)
	}

	sum := sha256.Sum256(data)
	r := exported{
		Source:      path,
		Path:        out,
		Size:        len(data),
		SHA256:      hex.EncodeToString(sum[:]),
		Diagnostics: len(res.Diagnostics),
	}

	if opts.qr {
		qrPath := strings.TrimSuffix(out, filepath.Ext(out)) + ".qr.png"
		if err := qrcode.WriteFile(r.SHA256, qrcode.Medium, 256, qrPath); err != nil {
			return exported{}, fmt.Errorf("writing %s: %w", qrPath, err)
		}
	}

	logging.Logger().Info("exported", "project", path, "out", out, "bytes", r.Size, "diagnostics", r.Diagnostics)
	return r, nil
}

// artifactPath swaps the project extension for .bin, optionally moving the
// file into dir.
func artifactPath(path, dir string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".bin"
	if dir == "" {
		dir = filepath.Dir(path)
	}
	return filepath.Join(dir, base)
}

func findLatest(dir string) (string, error) {
	return system.FindLatestProject(dir, config.FileName)
}
