package data

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/image/draw"

	"github.com/sprout-ml/sprout/internal/tensor"
)

// LoadPNGClasses loads a corpus laid out as root/<class>/*.png, one
// subdirectory per class. Images are resized to dims (bilinear) and
// normalized to [0, 1]; dims.Depth selects grayscale (1) or RGB (3)
// planes. Class labels are assigned by sorted directory name, and the
// names are returned alongside the set.
func LoadPNGClasses(root string, dims tensor.Dims) (*Set, []string, error) {
	if dims.Depth != 1 && dims.Depth != 3 {
		return nil, nil, fmt.Errorf("data: depth %d not supported, want 1 or 3", dims.Depth)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, nil, err
	}
	var classes []string
	for _, e := range entries {
		if e.IsDir() {
			classes = append(classes, e.Name())
		}
	}
	if len(classes) == 0 {
		return nil, nil, fmt.Errorf("data: no class directories under %s", root)
	}
	sort.Strings(classes)

	set := &Set{Classes: len(classes)}
	for label, class := range classes {
		dir := filepath.Join(root, class)
		files, err := os.ReadDir(dir)
		if err != nil {
			return nil, nil, err
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(strings.ToLower(f.Name()), ".png") {
				continue
			}
			img, err := loadPNG(filepath.Join(dir, f.Name()), dims)
			if err != nil {
				return nil, nil, err
			}
			set.Samples = append(set.Samples, Sample{Input: img, Label: label})
		}
	}
	if set.Len() == 0 {
		return nil, nil, fmt.Errorf("data: no PNG files under %s", root)
	}
	return set, classes, nil
}

func loadPNG(path string, dims tensor.Dims) (*tensor.Tensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	resized := image.NewRGBA(image.Rect(0, 0, dims.Width, dims.Height))
	draw.BiLinear.Scale(resized, resized.Bounds(), src, src.Bounds(), draw.Src, nil)

	t := tensor.New(dims)
	for y := 0; y < dims.Height; y++ {
		for x := 0; x < dims.Width; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			if dims.Depth == 1 {
				// ITU-R 601 luma on 16-bit channel values
				luma := (299*float32(r) + 587*float32(g) + 114*float32(b)) / 1000
				t.Set(luma/65535, x, y, 0)
			} else {
				t.Set(float32(r)/65535, x, y, 0)
				t.Set(float32(g)/65535, x, y, 1)
				t.Set(float32(b)/65535, x, y, 2)
			}
		}
	}
	return t, nil
}
