package limits

import (
	"errors"
	"fmt"
)

const (
	// MaxVideoContextPrivate is the maximum private payload size of a
	// video context (64KB). Backend per-stream state is a small fixed
	// struct; larger requests indicate a corrupted size computation.
	MaxVideoContextPrivate = 64 * 1024

	// MaxPictureDimension is the maximum width or height of an allocated
	// picture in pixels. This matches the coded-size ceiling of modern
	// codec levels (16384x16384).
	MaxPictureDimension = 16384

	// MaxFormatExtra is the maximum codec extradata size a format
	// descriptor accepts (1MB). Real extradata is a few kilobytes; the
	// limit prevents memory exhaustion from untrusted containers.
	MaxFormatExtra = 1024 * 1024
)

var (
	// ErrSizeNegative indicates a negative byte count was provided.
	ErrSizeNegative = errors.New("negative size")

	// ErrSizeTooLarge indicates a byte count exceeds its limit.
	ErrSizeTooLarge = errors.New("size too large")

	// ErrDimensionInvalid indicates a picture dimension is zero or negative.
	ErrDimensionInvalid = errors.New("invalid dimension")

	// ErrDimensionTooLarge indicates a picture dimension exceeds MaxPictureDimension.
	ErrDimensionTooLarge = errors.New("dimension too large")
)

// ValidatePrivateSize validates a video context private payload size
// against MaxVideoContextPrivate. Zero is a valid size: a context may
// carry a type tag with no payload bytes.
func ValidatePrivateSize(size int) error {
	if size < 0 {
		return fmt.Errorf("%w: private size %d", ErrSizeNegative, size)
	}
	if size > MaxVideoContextPrivate {
		return fmt.Errorf("%w: private size %d exceeds limit %d", ErrSizeTooLarge, size, MaxVideoContextPrivate)
	}
	return nil
}

// ValidatePictureDimensions validates picture width and height against
// MaxPictureDimension. Both dimensions must be positive.
func ValidatePictureDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrDimensionInvalid, width, height)
	}
	if width > MaxPictureDimension || height > MaxPictureDimension {
		return fmt.Errorf("%w: %dx%d exceeds limit %d", ErrDimensionTooLarge, width, height, MaxPictureDimension)
	}
	return nil
}

// ValidateFormatExtra validates codec extradata against MaxFormatExtra.
// Empty extradata is valid: most formats carry none.
func ValidateFormatExtra(extra []byte) error {
	if len(extra) > MaxFormatExtra {
		return fmt.Errorf("%w: extradata size %d exceeds limit %d", ErrSizeTooLarge, len(extra), MaxFormatExtra)
	}
	return nil
}
