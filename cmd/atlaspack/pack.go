package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gogpu/atlas"
)

var (
	packSize     int
	packMin      int
	packPadding  int
	packFormat   string
	packOut      string
	packManifest string
)

func init() {
	cmd := newPackCmd()
	cmd.Flags().IntVar(&packSize, "size", 0, "Atlas size in pixels (power of two)")
	cmd.Flags().IntVar(&packMin, "min-region", 0, "Smallest region size (power of two)")
	cmd.Flags().IntVar(&packPadding, "padding", 0, "Transparent border around every image")
	cmd.Flags().StringVar(&packFormat, "format", "", "Texture format of the upload data")
	cmd.Flags().StringVarP(&packOut, "out", "o", "", "Output PNG path")
	cmd.Flags().StringVar(&packManifest, "manifest", "", "Output manifest path")
	rootCmd.AddCommand(cmd)
}

func newPackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pack <dir>",
		Short: "Pack every image in a directory into one atlas",
		Long: `The pack command decodes every PNG, JPEG, GIF, BMP, TIFF and WebP file
in a directory, places them largest first, and writes the atlas image and a
JSON manifest with the pixel rectangle and UV coordinates of each file.

Example:
  atlaspack pack ./icons
  atlaspack pack ./icons --size 512 --padding 2 -o icons.png --manifest icons.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyPackFlags(cmd, &cfg)
			return runPack(args[0], cfg, cmd.OutOrStdout())
		},
	}
	return cmd
}

// applyPackFlags lets explicitly set flags override the config file.
func applyPackFlags(cmd *cobra.Command, c *packConfig) {
	flags := cmd.Flags()
	if flags.Changed("size") {
		c.Atlas.Size = packSize
	}
	if flags.Changed("min-region") {
		c.Atlas.MinRegionSize = packMin
	}
	if flags.Changed("padding") {
		c.Atlas.Padding = packPadding
	}
	if flags.Changed("format") {
		c.Atlas.Format = packFormat
	}
	if flags.Changed("out") {
		c.Output.Image = packOut
	}
	if flags.Changed("manifest") {
		c.Output.Manifest = packManifest
	}
}

type namedImage struct {
	name string
	img  image.Image
}

// manifest is the JSON written next to the atlas image.
type manifest struct {
	Size    int             `json:"size"`
	Format  string          `json:"format"`
	Regions []manifestEntry `json:"regions"`
}

type manifestEntry struct {
	Name   string     `json:"name"`
	X      int        `json:"x"`
	Y      int        `json:"y"`
	Width  int        `json:"width"`
	Height int        `json:"height"`
	Lease  int        `json:"lease"`
	UV     [4]float32 `json:"uv"`
}

func runPack(dir string, c packConfig, out io.Writer) error {
	ac, err := c.atlasConfig()
	if err != nil {
		return err
	}

	images, err := loadImages(dir)
	if err != nil {
		return err
	}
	if len(images) == 0 {
		return fmt.Errorf("no decodable images in %s", dir)
	}

	a, m, err := packImages(images, ac)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := writePNG(c.Output.Image, a.Image()); err != nil {
		return err
	}
	if err := writeManifest(c.Output.Manifest, m); err != nil {
		return err
	}

	s := a.Stats()
	fmt.Fprintf(out, "Packed %d images into %dx%d (%.1f%% leased)\n",
		s.Entries, ac.Size, ac.Size, 100*s.Allocator.Utilization)
	fmt.Fprintf(out, "  image:    %s\n", c.Output.Image)
	fmt.Fprintf(out, "  manifest: %s\n", c.Output.Manifest)
	return nil
}

// loadImages decodes the regular files of dir in name order. Files that are
// not images are skipped.
func loadImages(dir string) ([]namedImage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var images []namedImage
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		img, err := decodeFile(filepath.Join(dir, e.Name()))
		if errors.Is(err, image.ErrFormat) {
			atlas.Logger().Debug("atlaspack: skipping non-image file", "file", e.Name())
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Name(), err)
		}
		images = append(images, namedImage{name: e.Name(), img: img})
	}
	return images, nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}

// packImages places images largest side first, which keeps big regions from
// being fragmented by earlier small ones.
func packImages(images []namedImage, config atlas.Config) (*atlas.Atlas[string], manifest, error) {
	sorted := slices.Clone(images)
	slices.SortStableFunc(sorted, func(a, b namedImage) int {
		sa := max(a.img.Bounds().Dx(), a.img.Bounds().Dy())
		sb := max(b.img.Bounds().Dx(), b.img.Bounds().Dy())
		if sa != sb {
			return sb - sa
		}
		return strings.Compare(a.name, b.name)
	})

	a, err := atlas.NewAtlas[string](config)
	if err != nil {
		return nil, manifest{}, err
	}

	m := manifest{
		Size:    config.Size,
		Format:  config.Format.String(),
		Regions: make([]manifestEntry, 0, len(sorted)),
	}
	for _, ni := range sorted {
		r, err := a.Put(ni.name, ni.img)
		if err != nil {
			a.Close()
			return nil, manifest{}, fmt.Errorf("place %s: %w", ni.name, err)
		}
		m.Regions = append(m.Regions, manifestEntry{
			Name:   ni.name,
			X:      r.Content.Min.X,
			Y:      r.Content.Min.Y,
			Width:  r.Content.Dx(),
			Height: r.Content.Dy(),
			Lease:  r.Size,
			UV:     [4]float32{r.U0, r.V0, r.U1, r.V1},
		})
	}
	return a, m, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode image: %w", err)
	}
	return f.Close()
}

func writeManifest(path string, m manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
