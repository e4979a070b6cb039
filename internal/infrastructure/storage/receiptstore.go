// Package storage persists uploaded payment receipts on the local filesystem
// and derives the review thumbnails admins see in the approval queue.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	appPayment "github.com/vetiver-net/vetiver/internal/application/payment"
)

const (
	maxReceiptBytes = 10 << 20
	thumbnailWidth  = 320
)

// ReceiptStore writes receipts under <dir>/<trackingID>/ with uuid file
// names, so re-uploads can never collide and a receipt is traceable to its
// request from the path alone.
type ReceiptStore struct {
	dir string
}

func NewReceiptStore(dir string) (*ReceiptStore, error) {
	if dir == "" {
		dir = "uploads/receipts"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create receipt dir: %w", err)
	}
	return &ReceiptStore{dir: dir}, nil
}

var _ appPayment.ReceiptStore = (*ReceiptStore)(nil)

func (s *ReceiptStore) Save(ctx context.Context, trackingID string, file io.Reader) (string, string, error) {
	data, err := io.ReadAll(io.LimitReader(file, maxReceiptBytes+1))
	if err != nil {
		return "", "", fmt.Errorf("failed to read receipt: %w", err)
	}
	if len(data) > maxReceiptBytes {
		return "", "", fmt.Errorf("receipt exceeds %d bytes", maxReceiptBytes)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", "", fmt.Errorf("receipt is not a valid image: %w", err)
	}

	reqDir := filepath.Join(s.dir, trackingID)
	if err := os.MkdirAll(reqDir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create receipt dir: %w", err)
	}

	name := uuid.NewString()
	receiptPath := filepath.Join(reqDir, name+".jpg")
	thumbnailPath := filepath.Join(reqDir, name+"_thumb.jpg")

	if err := writeJPEG(receiptPath, img, 90); err != nil {
		return "", "", err
	}
	if err := writeJPEG(thumbnailPath, thumbnail(img), 80); err != nil {
		os.Remove(receiptPath)
		return "", "", err
	}

	return receiptPath, thumbnailPath, nil
}

// thumbnail scales the image down to thumbnailWidth preserving aspect ratio.
func thumbnail(src image.Image) image.Image {
	bounds := src.Bounds()
	if bounds.Dx() <= thumbnailWidth {
		return src
	}
	height := bounds.Dy() * thumbnailWidth / bounds.Dx()
	dst := image.NewRGBA(image.Rect(0, 0, thumbnailWidth, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}

func writeJPEG(path string, img image.Image, quality int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}
