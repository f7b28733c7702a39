package data

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/sprout-ml/sprout/internal/tensor"
)

// IDX format magic numbers (big-endian u32 headers).
const (
	idxImageMagic = 2051
	idxLabelMagic = 2049
)

// ReadIDXImages reads an IDX image stream.
//
// IDX file format for images:
//
//	magic number: 0x00000803 (2051)
//	number of images: 4 bytes
//	number of rows: 4 bytes
//	number of cols: 4 bytes
//	pixel data: unsigned bytes (0-255)
//
// Pixels are normalized to [0, 1] and each image becomes a cols x rows
// tensor.
func ReadIDXImages(r io.Reader) ([]*tensor.Tensor, error) {
	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", err)
	}
	if magic != idxImageMagic {
		return nil, fmt.Errorf("invalid magic number: got %d, want %d", magic, idxImageMagic)
	}

	var numImages, numRows, numCols uint32
	if err := binary.Read(r, binary.BigEndian, &numImages); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &numRows); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.BigEndian, &numCols); err != nil {
		return nil, err
	}

	dims := tensor.D2(int(numCols), int(numRows))
	raw := make([]byte, dims.Volume())
	images := make([]*tensor.Tensor, numImages)
	for i := range images {
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, fmt.Errorf("failed to read image %d: %w", i, err)
		}
		img := tensor.New(dims)
		for j, b := range raw {
			img.Data()[j] = float32(b) / 255
		}
		images[i] = img
	}

	return images, nil
}

// ReadIDXLabels reads an IDX label stream.
//
// IDX file format for labels:
//
//	magic number: 0x00000801 (2049)
//	number of labels: 4 bytes
//	label data: unsigned bytes
func ReadIDXLabels(r io.Reader) ([]int, error) {
	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", err)
	}
	if magic != idxLabelMagic {
		return nil, fmt.Errorf("invalid magic number: got %d, want %d", magic, idxLabelMagic)
	}

	var numLabels uint32
	if err := binary.Read(r, binary.BigEndian, &numLabels); err != nil {
		return nil, err
	}

	raw := make([]byte, numLabels)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}

	labels := make([]int, numLabels)
	for i, b := range raw {
		labels[i] = int(b)
	}
	return labels, nil
}

// LoadIDX reads a paired image and label file into a Set. The class
// count is taken from the highest label present.
func LoadIDX(imagePath, labelPath string) (*Set, error) {
	imgFile, err := os.Open(imagePath)
	if err != nil {
		return nil, err
	}
	defer imgFile.Close()

	labelFile, err := os.Open(labelPath)
	if err != nil {
		return nil, err
	}
	defer labelFile.Close()

	images, err := ReadIDXImages(imgFile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", imagePath, err)
	}
	labels, err := ReadIDXLabels(labelFile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", labelPath, err)
	}
	if len(images) != len(labels) {
		return nil, fmt.Errorf("data: %d images but %d labels", len(images), len(labels))
	}

	set := &Set{Samples: make([]Sample, len(images))}
	for i := range images {
		set.Samples[i] = Sample{Input: images[i], Label: labels[i]}
		if labels[i]+1 > set.Classes {
			set.Classes = labels[i] + 1
		}
	}
	return set, nil
}
