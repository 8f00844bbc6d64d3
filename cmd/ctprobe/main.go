// Command ctprobe runs the directory scanner and pyramid planner against a
// CT slice directory and prints the resulting plan, without building
// anything. Useful for sanity-checking a directory before a full build.
package main

import (
	"fmt"
	"os"

	"github.com/jikhanjung/ctharvester/internal/pyramid"
	"github.com/jikhanjung/ctharvester/internal/stack"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: ctprobe <directory> [min-dim]\n")
		os.Exit(1)
	}

	minDim := pyramid.MinDim
	if len(os.Args) >= 3 {
		fmt.Sscanf(os.Args[2], "%d", &minDim)
	}

	desc, err := stack.Scan(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Directory: %s\n", os.Args[1])
	fmt.Printf("Prefix: %q, extension: %s, index width: %d\n", desc.FilePrefix, desc.Extension, desc.IndexWidth)
	fmt.Printf("Slices: %d (seq %d..%d)\n", desc.SliceCount(), desc.SeqBegin, desc.SeqEnd)
	fmt.Printf("Shape: %d x %d, %d-bit\n", desc.Width, desc.Height, desc.BitDepth)

	plan := pyramid.Plan(desc.Width, desc.Height, desc.SliceCount(), minDim)
	fmt.Printf("\nPyramid plan (min dim %d):\n", minDim)
	if len(plan.Levels) == 0 {
		fmt.Println("  (below minimum dimension; no levels)")
	}
	for _, lvl := range plan.Levels {
		fmt.Printf("  level %d: %d x %d, %d slices, weight %.4f\n",
			lvl.LevelIndex, lvl.Width, lvl.Height, lvl.SliceCount, lvl.Weight)
	}
	fmt.Printf("Total work: %.2f, ETA sample size: %d\n", plan.TotalWork, plan.SampleSize)
}
