package coordinator

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jikhanjung/ctharvester/internal/imgcodec"
	"github.com/jikhanjung/ctharvester/internal/progress"
)

func fileName(i int) string {
	return fmt.Sprintf("%04d.tif", i)
}

func writeGray8Fixture(t *testing.T, path string, w, h int, v uint8) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	require.NoError(t, imgcodec.Write(path, img))
}

func TestRun_ProcessesAllUnitsAndAdvancesProgress(t *testing.T) {
	dir := t.TempDir()
	inDir := filepath.Join(dir, "in")
	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(inDir, 0o755))
	require.NoError(t, os.MkdirAll(outDir, 0o755))

	const n = 6
	paths := make([]string, n)
	for i := 0; i < n; i++ {
		paths[i] = filepath.Join(inDir, fileName(i))
		writeGray8Fixture(t, paths[i], 4, 4, uint8(i*10))
	}

	var units []WorkUnit
	for i := 0; i < n/2; i++ {
		units = append(units, WorkUnit{
			LevelIndex:  1,
			OutputIndex: i,
			InputPathA:  paths[2*i],
			InputPathB:  paths[2*i+1],
			OutputPath:  filepath.Join(outDir, fileName(i)),
			BitDepth:    8,
		})
	}

	prog := progress.New(nil)
	prog.Start(float64(len(units)), 0)

	outcome, errs := Run(units, 2, 1, prog, nil)
	require.Equal(t, Completed, outcome)
	assert.Empty(t, errs)
	assert.Equal(t, float64(len(units)), prog.Current())

	for i := 0; i < n/2; i++ {
		_, err := os.Stat(filepath.Join(outDir, fileName(i)))
		assert.NoError(t, err, "expected output %d to exist", i)
	}
}

func TestRun_Level2EscalatesPastTenPercentFailureRate(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(outDir, 0o755))

	good := filepath.Join(dir, "0000.tif")
	writeGray8Fixture(t, good, 4, 4, 5)

	// 1 failure out of 2 units is 50%, well past the 10% threshold for L>1.
	units := []WorkUnit{
		{LevelIndex: 2, OutputIndex: 0, InputPathA: good, OutputPath: filepath.Join(outDir, "0000.tif"), BitDepth: 8},
		{LevelIndex: 2, OutputIndex: 1, InputPathA: filepath.Join(dir, "missing.tif"), OutputPath: filepath.Join(outDir, "0001.tif"), BitDepth: 8},
	}

	prog := progress.New(nil)
	prog.Start(float64(len(units)), 0)

	outcome, errs := Run(units, 2, 1, prog, nil)
	assert.Equal(t, Failed, outcome)
	assert.NotEmpty(t, errs)
}

func TestRun_Level1AnyFailureEscalatesToFailed(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(outDir, 0o755))

	good := filepath.Join(dir, "0000.tif")
	writeGray8Fixture(t, good, 4, 4, 5)

	units := []WorkUnit{
		{LevelIndex: 1, OutputIndex: 0, InputPathA: good, OutputPath: filepath.Join(outDir, "0000.tif"), BitDepth: 8},
		{LevelIndex: 1, OutputIndex: 1, InputPathA: filepath.Join(dir, "missing.tif"), OutputPath: filepath.Join(outDir, "0001.tif"), BitDepth: 8},
	}

	prog := progress.New(nil)
	prog.Start(float64(len(units)), 0)

	outcome, errs := Run(units, 2, 1, prog, nil)
	assert.Equal(t, Failed, outcome)
	assert.NotEmpty(t, errs)
}

func TestRun_CancelStopsSubmittingNewUnits(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(outDir, 0o755))

	const n = 20
	var units []WorkUnit
	for i := 0; i < n; i++ {
		src := filepath.Join(dir, fileName(i))
		writeGray8Fixture(t, src, 4, 4, uint8(i))
		units = append(units, WorkUnit{
			LevelIndex:  1,
			OutputIndex: i,
			InputPathA:  src,
			OutputPath:  filepath.Join(outDir, fileName(i)),
			BitDepth:    8,
		})
	}

	prog := progress.New(nil)
	prog.Start(float64(len(units)), 0)
	prog.RequestCancel() // set before Run starts: nothing should be submitted

	outcome, _ := Run(units, 1, 1, prog, nil)
	assert.Equal(t, Cancelled, outcome)
}

func TestRun_EmptyUnitsCompletesImmediately(t *testing.T) {
	prog := progress.New(nil)
	prog.Start(0, 0)
	outcome, errs := Run(nil, 4, 1, prog, nil)
	assert.Equal(t, Completed, outcome)
	assert.Nil(t, errs)
}

func TestRun_Pair16BitRoundTrip(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(outDir, 0o755))

	a := filepath.Join(dir, "a.tif")
	b := filepath.Join(dir, "b.tif")
	imgA := image.NewGray16(image.Rect(0, 0, 2, 2))
	imgB := image.NewGray16(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			imgA.SetGray16(x, y, color.Gray16{Y: 10000})
			imgB.SetGray16(x, y, color.Gray16{Y: 20000})
		}
	}
	require.NoError(t, imgcodec.Write(a, imgA))
	require.NoError(t, imgcodec.Write(b, imgB))

	out := filepath.Join(outDir, "0000.tif")
	units := []WorkUnit{{LevelIndex: 1, OutputIndex: 0, InputPathA: a, InputPathB: b, OutputPath: out, BitDepth: 16}}

	prog := progress.New(nil)
	prog.Start(1, 0)
	outcome, errs := Run(units, 1, 1, prog, nil)
	require.Equal(t, Completed, outcome)
	require.Empty(t, errs)

	loaded, err := imgcodec.Load(out)
	require.NoError(t, err)
	g, ok := loaded.(*image.Gray16)
	require.True(t, ok)
	assert.Equal(t, uint16(15000), g.Gray16At(0, 0).Y)
}
