package atlas

import (
	"fmt"
	"image"
	"slices"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// bytesPerPixel is fixed by the supported 8-bit RGBA/BGRA formats.
const bytesPerPixel = 4

// Upload is one dirty region ready for a WebGPU queue write:
//
//	queue.WriteTexture(&u.Dst, u.Data, &u.Layout, &u.Size)
type Upload struct {
	// Node is the quadtree node of the region.
	Node int
	// Dst addresses the region inside the atlas texture.
	Dst gputypes.ImageCopyTexture
	// Layout describes Data: tightly packed rows.
	Layout gputypes.TextureDataLayout
	// Size is the region extent.
	Size gputypes.Extent3D
	// Data holds the pixels in the configured format.
	Data []byte
}

// Bind checks that tex can hold the atlas.
func (a *Atlas[K]) Bind(tex gpucontext.Texture) error {
	if tex.Width() != a.config.Size || tex.Height() != a.config.Size {
		return fmt.Errorf("%w: texture %dx%d, atlas %dx%d",
			ErrTextureSizeMismatch, tex.Width(), tex.Height(), a.config.Size, a.config.Size)
	}
	return nil
}

// Dirty returns the number of regions waiting for upload.
func (a *Atlas[K]) Dirty() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.dirty)
}

// Uploads drains the dirty regions and returns them as copy descriptors
// targeting texture, ordered by node index.
func (a *Atlas[K]) Uploads(texture uintptr) []Upload {
	a.mu.Lock()
	defer a.mu.Unlock()

	nodes := a.dirtyNodesLocked()
	uploads := make([]Upload, 0, len(nodes))
	for _, n := range nodes {
		r := a.entries[a.owners[n]].Rect()
		uploads = append(uploads, Upload{
			Node: n,
			Dst: gputypes.ImageCopyTexture{
				Texture:  texture,
				MipLevel: 0,
				Origin:   gputypes.Origin3D{X: uint32(r.Min.X), Y: uint32(r.Min.Y)},
				Aspect:   gputypes.TextureAspectAll,
			},
			Layout: gputypes.TextureDataLayout{
				BytesPerRow:  uint32(r.Dx() * bytesPerPixel),
				RowsPerImage: uint32(r.Dy()),
			},
			Size: gputypes.NewExtent2D(uint32(r.Dx()), uint32(r.Dy())),
			Data: a.pixelsLocked(r),
		})
		delete(a.dirty, n)
	}

	if len(uploads) > 0 {
		Logger().Debug("atlas: uploads drained", "regions", len(uploads))
	}
	return uploads
}

// Flush pushes every dirty region to dst. When dst fails, the failing
// region and all regions after it stay dirty and the error is returned.
func (a *Atlas[K]) Flush(dst gpucontext.TextureRegionUpdater) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, n := range a.dirtyNodesLocked() {
		r := a.entries[a.owners[n]].Rect()
		if err := dst.UpdateRegion(r.Min.X, r.Min.Y, r.Dx(), r.Dy(), a.pixelsLocked(r)); err != nil {
			Logger().Warn("atlas: flush failed", "node", n, "rect", r.String(), "err", err)
			return fmt.Errorf("atlas: flush region %v: %w", r, err)
		}
		delete(a.dirty, n)
	}
	return nil
}

func (a *Atlas[K]) dirtyNodesLocked() []int {
	nodes := make([]int, 0, len(a.dirty))
	for n := range a.dirty {
		nodes = append(nodes, n)
	}
	slices.Sort(nodes)
	return nodes
}

// pixelsLocked copies r out of the surface as tightly packed rows in the
// configured format.
func (a *Atlas[K]) pixelsLocked(r image.Rectangle) []byte {
	rowBytes := r.Dx() * bytesPerPixel
	data := make([]byte, rowBytes*r.Dy())
	for y := 0; y < r.Dy(); y++ {
		src := a.surface.PixOffset(r.Min.X, r.Min.Y+y)
		copy(data[y*rowBytes:(y+1)*rowBytes], a.surface.Pix[src:src+rowBytes])
	}

	if isBGRA(a.config.Format) {
		for i := 0; i < len(data); i += bytesPerPixel {
			data[i], data[i+2] = data[i+2], data[i]
		}
	}
	return data
}
