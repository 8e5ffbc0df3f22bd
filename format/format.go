// Package format defines the elementary stream format descriptors shared
// between decoders, decoder devices, and the surrounding pipeline.
//
// A Format pairs a stream category with a codec FourCC and the
// category-specific parameters (VideoFormat or AudioFormat). Formats are
// value types; the one owned substructure is the codec extradata, which
// Copy duplicates and Clean releases so no two descriptors ever alias
// the same extradata bytes.
package format

import (
	"fmt"

	"github.com/opd-ai/mediacore/limits"
)

// Category identifies the kind of elementary stream a format describes.
type Category int

const (
	// CategoryUnknown marks a format whose stream kind is not yet known.
	CategoryUnknown Category = iota
	// CategoryVideo marks a video elementary stream.
	CategoryVideo
	// CategoryAudio marks an audio elementary stream.
	CategoryAudio
	// CategorySubtitle marks a subtitle elementary stream.
	CategorySubtitle
	// CategoryData marks an opaque data elementary stream.
	CategoryData
)

func (c Category) String() string {
	switch c {
	case CategoryVideo:
		return "video"
	case CategoryAudio:
		return "audio"
	case CategorySubtitle:
		return "subtitle"
	case CategoryData:
		return "data"
	default:
		return "unknown"
	}
}

// FourCC is a four-character codec or chroma identifier.
type FourCC uint32

// NewFourCC packs four characters into a FourCC.
func NewFourCC(a, b, c, d byte) FourCC {
	return FourCC(uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24)
}

func (f FourCC) String() string {
	if f == 0 {
		return "none"
	}
	chars := make([]byte, 4)
	for i := 0; i < 4; i++ {
		ch := byte(f >> (8 * i))
		if ch < 0x20 || ch > 0x7e {
			ch = '?'
		}
		chars[i] = ch
	}
	return string(chars)
}

// Well-known codec and chroma identifiers.
var (
	// CodecOpus identifies Opus compressed audio.
	CodecOpus = NewFourCC('O', 'p', 'u', 's')
	// CodecMP3 identifies MPEG-1/2 layer III compressed audio.
	CodecMP3 = NewFourCC('m', 'p', '3', ' ')
	// CodecS16L identifies signed 16-bit little-endian PCM audio.
	CodecS16L = NewFourCC('s', '1', '6', 'l')
	// CodecVP8 identifies VP8 compressed video.
	CodecVP8 = NewFourCC('V', 'P', '8', '0')
	// CodecH264 identifies H.264/AVC compressed video.
	CodecH264 = NewFourCC('h', '2', '6', '4')
	// ChromaI420 identifies planar YUV 4:2:0 picture storage.
	ChromaI420 = NewFourCC('I', '4', '2', '0')
)

// VideoFormat carries the video-specific parameters of a Format.
type VideoFormat struct {
	// Chroma is the pixel layout of decoded pictures.
	Chroma FourCC
	// Width and Height are the coded picture dimensions in pixels.
	Width  int
	Height int
	// FrameRate and FrameRateBase express the frame rate as a rational
	// (FrameRate / FrameRateBase frames per second).
	FrameRate     uint32
	FrameRateBase uint32
	// SARNum and SARDen express the sample aspect ratio as a rational.
	SARNum uint32
	SARDen uint32
}

// AudioFormat carries the audio-specific parameters of a Format.
type AudioFormat struct {
	// SampleRate is the number of samples per second per channel.
	SampleRate uint32
	// Channels is the number of interleaved audio channels.
	Channels uint8
	// BitsPerSample is the storage size of one decoded sample.
	BitsPerSample uint8
}

// Format describes one elementary stream: its category, codec, the
// category-specific parameters, and optional codec extradata.
type Format struct {
	Category Category
	Codec    FourCC
	// BitRate is the average stream bit rate in bits per second, zero
	// when unknown.
	BitRate uint32
	Video   VideoFormat
	Audio   AudioFormat

	// Extra is codec extradata (parameter sets, codec headers) owned by
	// this descriptor. Set it through SetExtra; Copy duplicates it and
	// Clean releases it.
	Extra []byte
}

// New returns a format of the given category and codec with all other
// parameters zeroed.
func New(category Category, codec FourCC) Format {
	return Format{Category: category, Codec: codec}
}

// Copy returns a deep copy of the format. The copy owns its own
// extradata bytes; mutating one descriptor never affects the other.
func (f *Format) Copy() Format {
	out := *f
	if f.Extra != nil {
		out.Extra = make([]byte, len(f.Extra))
		copy(out.Extra, f.Extra)
	}
	return out
}

// Clean releases the format's owned substructures. The descriptor
// remains valid and may be cleaned again; only the extradata is
// dropped.
func (f *Format) Clean() {
	f.Extra = nil
}

// SetExtra validates and deep-copies codec extradata into the format.
// The format never aliases caller-owned bytes.
func (f *Format) SetExtra(extra []byte) error {
	if err := limits.ValidateFormatExtra(extra); err != nil {
		return fmt.Errorf("format extradata rejected: %w", err)
	}
	if extra == nil {
		f.Extra = nil
		return nil
	}
	f.Extra = make([]byte, len(extra))
	copy(f.Extra, extra)
	return nil
}
