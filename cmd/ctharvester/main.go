// Command ctharvester is the CLI front end for the ctharvester pyramid
// builder and cropper.
package main

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jikhanjung/ctharvester"
	"github.com/jikhanjung/ctharvester/internal/imgcodec"
	"github.com/jikhanjung/ctharvester/internal/pyramid"
	"github.com/jikhanjung/ctharvester/internal/stack"
)

type buildOpts struct {
	minDim     int
	workers    int
	format     string
	sampleSize int
	verbose    bool
	logPath    string
}

type cropOpts struct {
	buildOpts
	zBottom int
	zTop    int
	x0, y0  float64
	x1, y1  float64
	outDir  string
}

func main() {
	root := &cobra.Command{
		Use:   "ctharvester",
		Short: "Build and query thumbnail pyramids for CT slice stacks",
		Long: `ctharvester builds a multi-level thumbnail pyramid from a directory of
CT slice images, caches it under <directory>/.thumbnail, and extracts
cropped sub-volumes from the cached pyramid.`,
	}

	root.AddCommand(newScanCmd())
	root.AddCommand(newBuildCmd())
	root.AddCommand(newCropCmd())

	if err := root.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func newScanCmd() *cobra.Command {
	var minDim int
	cmd := &cobra.Command{
		Use:   "scan <directory>",
		Short: "Scan a directory and print the resulting pyramid plan, without building",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := stack.Scan(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("slices: %d (%dx%d, %d-bit)\n", desc.SliceCount(), desc.Width, desc.Height, desc.BitDepth)

			plan := pyramid.Plan(desc.Width, desc.Height, desc.SliceCount(), minDim)
			for _, lvl := range plan.Levels {
				fmt.Printf("level %d: %dx%d, %d slices, weight %.4f\n",
					lvl.LevelIndex, lvl.Width, lvl.Height, lvl.SliceCount, lvl.Weight)
			}
			fmt.Printf("total work: %.2f, sample size: %d\n", plan.TotalWork, plan.SampleSize)
			return nil
		},
	}
	cmd.Flags().IntVar(&minDim, "min-dim", pyramid.MinDim, "minimum level dimension before stopping")
	return cmd
}

func newBuildCmd() *cobra.Command {
	var o buildOpts
	cmd := &cobra.Command{
		Use:   "build <directory>",
		Short: "Build (or reuse a cached) thumbnail pyramid for a CT slice directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := runBuild(args[0], o)
			if err != nil {
				return err
			}
			if out.Cancelled {
				fmt.Println("build cancelled")
				return nil
			}
			fmt.Printf("levels built: %d\n", len(out.Plan.Levels))
			fmt.Printf("minimum volume: %d x %d x %d\n", out.MinimumVolume.Depth, out.MinimumVolume.Height, out.MinimumVolume.Width)
			fmt.Printf("elapsed: %.2fs\n", out.ElapsedSeconds)
			return nil
		},
	}
	addBuildFlags(cmd, &o)
	return cmd
}

func newCropCmd() *cobra.Command {
	var o cropOpts
	cmd := &cobra.Command{
		Use:   "crop <directory>",
		Short: "Build (or reuse) the pyramid, then extract a cropped sub-volume as a TIFF slice stack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := runBuild(args[0], o.buildOpts)
			if err != nil {
				return err
			}
			if out.Cancelled {
				return fmt.Errorf("build cancelled before crop could run")
			}

			cropped, err := ctharvester.Crop(out, o.zBottom, o.zTop, o.x0, o.y0, o.x1, o.y1)
			if err != nil {
				return err
			}

			if o.outDir == "" {
				fmt.Printf("cropped volume: %d x %d x %d (use --out to write slices)\n", cropped.Depth, cropped.Height, cropped.Width)
				return nil
			}
			return writeCroppedSlices(o.outDir, cropped)
		},
	}
	addBuildFlags(cmd, &o.buildOpts)
	cmd.Flags().IntVar(&o.zBottom, "z-bottom", 0, "crop lower Z bound, inclusive")
	cmd.Flags().IntVar(&o.zTop, "z-top", 0, "crop upper Z bound, exclusive")
	cmd.Flags().Float64Var(&o.x0, "x0", 0, "crop left X bound, fraction of width")
	cmd.Flags().Float64Var(&o.y0, "y0", 0, "crop top Y bound, fraction of height")
	cmd.Flags().Float64Var(&o.x1, "x1", 1, "crop right X bound, fraction of width")
	cmd.Flags().Float64Var(&o.y1, "y1", 1, "crop bottom Y bound, fraction of height")
	cmd.Flags().StringVar(&o.outDir, "out", "", "directory to write cropped TIFF slices to")
	return cmd
}

func addBuildFlags(cmd *cobra.Command, o *buildOpts) {
	cmd.Flags().IntVar(&o.minDim, "min-dim", pyramid.MinDim, "minimum level dimension before stopping")
	cmd.Flags().IntVar(&o.workers, "workers", 0, "worker count (0 = auto)")
	cmd.Flags().StringVar(&o.format, "format", "tif", "thumbnail image format (outputs are always written as tif)")
	cmd.Flags().IntVar(&o.sampleSize, "sample-size", 0, "ETA sample size override (0 = auto)")
	cmd.Flags().BoolVarP(&o.verbose, "verbose", "v", false, "log progress to stderr")
	cmd.Flags().StringVar(&o.logPath, "log", "", "rotating build log file")
}

func runBuild(directory string, o buildOpts) (ctharvester.BuildOutcome, error) {
	cfg := ctharvester.Config{
		WorkerCount:        o.workers,
		MinDim:             o.minDim,
		ThumbnailFormat:    o.format,
		SampleSizeOverride: o.sampleSize,
		Verbose:            o.verbose,
		LogPath:            o.logPath,
	}

	sink := func(percent int, eta *float64, status string) {
		if eta != nil {
			fmt.Fprintf(os.Stderr, "\r%s: %d%% (eta %.0fs)", status, percent, *eta)
		} else {
			fmt.Fprintf(os.Stderr, "\r%s: %d%%", status, percent)
		}
		if percent >= 100 {
			fmt.Fprintln(os.Stderr)
		}
	}

	return ctharvester.Build(directory, cfg, sink, nil)
}

func writeCroppedSlices(outDir string, v ctharvester.Volume) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	width := len(fmt.Sprintf("%d", v.Depth-1))
	if width < 4 {
		width = 4
	}
	for z := 0; z < v.Depth; z++ {
		img := image.NewGray(image.Rect(0, 0, v.Width, v.Height))
		offset := z * v.Height * v.Width
		for y := 0; y < v.Height; y++ {
			row := v.Data[offset+y*v.Width : offset+(y+1)*v.Width]
			for x, px := range row {
				img.SetGray(x, y, color.Gray{Y: px})
			}
		}
		path := filepath.Join(outDir, fmt.Sprintf("%0*d.tif", width, z))
		if err := imgcodec.Write(path, img); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}
