package builder

import (
	"fmt"
	"image"
	"image/color"

	"github.com/jikhanjung/ctharvester/internal/imgcodec"
	"github.com/jikhanjung/ctharvester/internal/layout"
	"github.com/jikhanjung/ctharvester/internal/pyramid"
	"github.com/jikhanjung/ctharvester/internal/stack"
	"github.com/jikhanjung/ctharvester/internal/volume"
)

// loadMinimumVolume loads the smallest existing level (the last planned
// level, or the source stack itself if the plan is empty) into memory,
// downscaling 16-bit slices to 8-bit by right-shifting 8 bits.
func loadMinimumVolume(lay layout.Thumbnail, desc stack.Descriptor, plan pyramid.PyramidPlan) (volume.Minimum, error) {
	if len(plan.Levels) == 0 {
		return loadVolumeFromSource(desc)
	}
	smallest := plan.Levels[len(plan.Levels)-1]
	return loadVolumeFromLevel(lay, desc, smallest)
}

func loadVolumeFromSource(desc stack.Descriptor) (volume.Minimum, error) {
	depth := desc.SliceCount()
	data := make([]uint8, 0, depth*desc.Width*desc.Height)
	for i := desc.SeqBegin; i <= desc.SeqEnd; i++ {
		slice, err := loadGray8Slice(desc.FilePath(i), desc.Width, desc.Height)
		if err != nil {
			return volume.Minimum{}, err
		}
		data = append(data, slice...)
	}
	return volume.Minimum{Depth: depth, Height: desc.Height, Width: desc.Width, Data: data}, nil
}

func loadVolumeFromLevel(lay layout.Thumbnail, desc stack.Descriptor, level pyramid.LevelSpec) (volume.Minimum, error) {
	depth := level.SliceCount
	data := make([]uint8, 0, depth*level.Width*level.Height)
	for i := 0; i < depth; i++ {
		path := lay.OutputPath(level.LevelIndex, i, desc.IndexWidth, "tif")
		slice, err := loadGray8Slice(path, level.Width, level.Height)
		if err != nil {
			return volume.Minimum{}, err
		}
		data = append(data, slice...)
	}
	return volume.Minimum{Depth: depth, Height: level.Height, Width: level.Width, Data: data}, nil
}

// loadGray8Slice loads path and returns an 8-bit row-major buffer of the
// declared shape, downscaling 16-bit source data by right-shifting 8 bits.
func loadGray8Slice(path string, width, height int) ([]uint8, error) {
	img, err := imgcodec.Load(path)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	if bounds.Dx() != width || bounds.Dy() != height {
		return nil, fmt.Errorf("builder: %s has shape (%d,%d), want (%d,%d)", path, bounds.Dx(), bounds.Dy(), width, height)
	}

	out := make([]uint8, width*height)
	if g16, ok := img.(*image.Gray16); ok {
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				v := g16.Gray16At(x, y).Y
				out[(y-bounds.Min.Y)*width+(x-bounds.Min.X)] = uint8(v >> 8)
			}
		}
		return out, nil
	}
	if g8, ok := img.(*image.Gray); ok && g8.Stride == width {
		copy(out, g8.Pix)
		return out, nil
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			out[(y-bounds.Min.Y)*width+(x-bounds.Min.X)] = c.Y
		}
	}
	return out, nil
}
