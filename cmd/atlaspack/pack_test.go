package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNGFile(t *testing.T, path string, w, h int, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func TestRunPack(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()

	writePNGFile(t, filepath.Join(src, "small.png"), 5, 3, color.RGBA{R: 255, A: 255})
	writePNGFile(t, filepath.Join(src, "big.png"), 30, 20, color.RGBA{G: 255, A: 255})
	writePNGFile(t, filepath.Join(src, "mid.png"), 12, 12, color.RGBA{B: 255, A: 255})
	writeFile(t, src, "README.txt", "not an image")

	c := defaultPackConfig()
	c.Atlas.Size = 64
	c.Atlas.MinRegionSize = 4
	c.Atlas.Padding = 1
	c.Output.Image = filepath.Join(out, "atlas.png")
	c.Output.Manifest = filepath.Join(out, "atlas.json")

	var buf bytes.Buffer
	require.NoError(t, runPack(src, c, &buf))
	assert.Contains(t, buf.String(), "Packed 3 images into 64x64")

	data, err := os.ReadFile(c.Output.Manifest)
	require.NoError(t, err)
	var m manifest
	require.NoError(t, json.Unmarshal(data, &m))
	require.Len(t, m.Regions, 3)
	assert.Equal(t, 64, m.Size)

	// Largest first.
	assert.Equal(t, "big.png", m.Regions[0].Name)
	assert.Equal(t, 32, m.Regions[0].Lease)
	assert.Equal(t, "mid.png", m.Regions[1].Name)
	assert.Equal(t, "small.png", m.Regions[2].Name)

	rects := make([]image.Rectangle, len(m.Regions))
	for i, r := range m.Regions {
		rects[i] = image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
		for j := 0; j < i; j++ {
			assert.False(t, rects[i].Overlaps(rects[j]), "%s overlaps %s", r.Name, m.Regions[j].Name)
		}
	}

	f, err := os.Open(c.Output.Image)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 64), img.Bounds())

	big := m.Regions[0]
	r, g, _, a := img.At(big.X, big.Y).RGBA()
	assert.Zero(t, r)
	assert.Equal(t, uint32(0xffff), g)
	assert.Equal(t, uint32(0xffff), a)
}

func TestRunPack_Errors(t *testing.T) {
	c := defaultPackConfig()
	c.Output.Image = filepath.Join(t.TempDir(), "atlas.png")

	err := runPack(filepath.Join(t.TempDir(), "missing"), c, &bytes.Buffer{})
	assert.Error(t, err)

	empty := t.TempDir()
	err = runPack(empty, c, &bytes.Buffer{})
	assert.ErrorContains(t, err, "no decodable images")

	tooBig := t.TempDir()
	writePNGFile(t, filepath.Join(tooBig, "huge.png"), 40, 40, color.RGBA{A: 255})
	c.Atlas.Size = 32
	c.Atlas.MinRegionSize = 8
	err = runPack(tooBig, c, &bytes.Buffer{})
	assert.ErrorContains(t, err, "huge.png")
}
