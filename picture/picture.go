// Package picture provides reference-counted video frame buffers.
//
// A Picture owns one plane buffer per component of its chroma layout.
// Decoders allocate pictures for their output format and hand them to
// the surrounding pipeline, which may share them with rendering threads;
// the shared reference count decides when the planes are dropped.
package picture

import (
	"fmt"

	"github.com/opd-ai/mediacore/format"
	"github.com/opd-ai/mediacore/limits"
	"github.com/opd-ai/mediacore/refcount"
	"github.com/sirupsen/logrus"
)

// Plane is one component buffer of a picture.
type Plane struct {
	// Pixels holds Lines rows of Stride bytes each.
	Pixels []byte
	// Stride is the byte distance between the starts of two rows.
	Stride int
	// Lines is the number of rows in the plane.
	Lines int
}

// Picture is a reference-counted video frame buffer.
//
// Width, Height, and Chroma are fixed at allocation. The plane layout
// follows the chroma: I420 pictures carry three planes (Y, then U and V
// at half resolution). Plane contents are mutable by whoever holds a
// reference; the planes themselves are dropped when the last reference
// is released.
type Picture struct {
	rc refcount.RC

	Width  int
	Height int
	Chroma format.FourCC
	Planes []Plane
}

// NewFromFormat allocates a picture matching a video format. The chroma
// defaults to I420 when the format does not name one. Dimension bounds
// are enforced; a rejected format yields no picture.
func NewFromFormat(vfmt *format.VideoFormat) (*Picture, error) {
	if err := limits.ValidatePictureDimensions(vfmt.Width, vfmt.Height); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "NewFromFormat",
			"width":    vfmt.Width,
			"height":   vfmt.Height,
			"error":    err.Error(),
		}).Warn("picture dimensions rejected")
		return nil, err
	}

	chroma := vfmt.Chroma
	if chroma == 0 {
		chroma = format.ChromaI420
	}

	pic := &Picture{
		Width:  vfmt.Width,
		Height: vfmt.Height,
		Chroma: chroma,
	}
	pic.Planes = newI420Planes(vfmt.Width, vfmt.Height)
	pic.rc.Init()

	logrus.WithFields(logrus.Fields{
		"function": "NewFromFormat",
		"width":    pic.Width,
		"height":   pic.Height,
		"chroma":   pic.Chroma.String(),
		"planes":   len(pic.Planes),
	}).Debug("picture allocated")
	return pic, nil
}

// newI420Planes allocates the Y, U, and V planes of a 4:2:0 picture.
// Chroma planes round odd dimensions up so every luma sample has a
// chroma sample under it.
func newI420Planes(width, height int) []Plane {
	chromaWidth := (width + 1) / 2
	chromaHeight := (height + 1) / 2

	return []Plane{
		{Pixels: make([]byte, width*height), Stride: width, Lines: height},
		{Pixels: make([]byte, chromaWidth*chromaHeight), Stride: chromaWidth, Lines: chromaHeight},
		{Pixels: make([]byte, chromaWidth*chromaHeight), Stride: chromaWidth, Lines: chromaHeight},
	}
}

// Size returns the total byte size of all planes.
func (p *Picture) Size() int {
	total := 0
	for _, plane := range p.Planes {
		total += len(plane.Pixels)
	}
	return total
}

// Hold adds an owner and returns the same picture.
func (p *Picture) Hold() *Picture {
	p.rc.Hold()
	return p
}

// Release removes an owner. The last release drops the plane buffers;
// a holder that kept a stale pointer past its release sees empty planes
// instead of silently sharing reclaimed memory.
func (p *Picture) Release() {
	if !p.rc.Release() {
		return
	}
	p.Planes = nil

	logrus.WithFields(logrus.Fields{
		"function": "Release",
		"width":    p.Width,
		"height":   p.Height,
		"chroma":   p.Chroma.String(),
	}).Debug("picture released")
}

// Refs reports the current owner count. Intended for tests and logs.
func (p *Picture) Refs() int64 {
	return p.rc.Refs()
}

func (p *Picture) String() string {
	return fmt.Sprintf("picture %dx%d %s", p.Width, p.Height, p.Chroma)
}
