package mediacore

import (
	"fmt"

	"github.com/opd-ai/mediacore/format"
	"github.com/opd-ai/mediacore/module"
	"github.com/opd-ai/mediacore/picture"
	"github.com/sirupsen/logrus"
)

// Capability names decoder modules register under, selected by the
// input format category.
const (
	AudioDecoderCapability = "audio decoder"
	VideoDecoderCapability = "video decoder"
)

// Function slots a decoder module installs on the decoder it opens.
// Every slot is unset until a module sets it and cleared again when the
// module is unloaded.
type (
	// DecodeFunc consumes one unit of compressed input. Decoded output
	// is emitted through the owner's queue callbacks.
	DecodeFunc func(dec *Decoder, data []byte) error

	// GetCCFunc drains closed-caption bytes the module extracted from
	// the stream, nil when none are pending.
	GetCCFunc func(dec *Decoder) []byte

	// PacketizeFunc reassembles raw input bytes into decodable units.
	PacketizeFunc func(dec *Decoder, data []byte) ([][]byte, error)

	// FlushFunc discards the module's buffered stream state, for seeks
	// and stream restarts.
	FlushFunc func(dec *Decoder)
)

// DecoderOpen is the open routine a decoder module registers. It
// inspects the decoder's input format, returns ErrModuleIncompatible to
// decline, and on success must set the Decode slot; it may set the
// remaining slots, a module close hook, the output format, and a
// description.
type DecoderOpen func(dec *Decoder) error

// DecoderCallbacks is the output-side callback table the owning
// pipeline populates before the decoder is used. The decoder borrows
// it; it stays owned by the pipeline.
type DecoderCallbacks struct {
	// VideoFormatUpdate is told the decoder's output video format
	// changed, with the video context the new stream state lives in
	// (nil when the backend produces plain memory pictures).
	VideoFormatUpdate func(dec *Decoder, vctx *VideoContext) error

	// VideoBufferNew allocates one output picture. Unset, the decoder
	// falls back to allocating from its output format.
	VideoBufferNew func(dec *Decoder) (*picture.Picture, error)

	// AbortPictures tells the buffer producer to stop handing out
	// pictures (abort true) or to resume (abort false). Advisory.
	AbortPictures func(dec *Decoder, abort bool)

	// QueueVideo hands one decoded picture to the owner.
	QueueVideo func(dec *Decoder, pic *picture.Picture) error

	// QueueAudio hands decoded interleaved PCM bytes to the owner.
	QueueAudio func(dec *Decoder, pcm []byte) error
}

// Decoder is one decoder instance: the input and output format
// descriptors it owns, at most one loaded module, and the function
// slots that module installed. The owning pipeline populates Cbs before
// using the video helpers.
type Decoder struct {
	// FmtIn is the input format, deep-copied by Init.
	FmtIn format.Format
	// FmtOut is the output format, maintained by the loaded module.
	FmtOut format.Format

	// Description names the loaded module's codec, set by the module,
	// released by Clean.
	Description *format.Meta

	// Function slots, unset until a module sets them.
	Decode    DecodeFunc
	GetCC     GetCCFunc
	Packetize PacketizeFunc
	Flush     FlushFunc

	// FrameDropAllowed permits the module to drop late frames.
	FrameDropAllowed bool
	// ExtraPictureBuffers is the number of output pictures the module
	// wants beyond the format's minimum.
	ExtraPictureBuffers int

	// Cbs is the owner's output callback table, borrowed.
	Cbs *DecoderCallbacks

	mod      *module.Module
	modClose func(dec *Decoder)
}

var (
	audioDecoderRegistry = module.New[DecoderOpen](AudioDecoderCapability)
	videoDecoderRegistry = module.New[DecoderOpen](VideoDecoderCapability)
)

// RegisterAudioDecoder adds an audio decoder module to the selection
// registry.
func RegisterAudioDecoder(name string, priority int, open DecoderOpen) error {
	return audioDecoderRegistry.Register(name, priority, open)
}

// RegisterVideoDecoder adds a video decoder module to the selection
// registry.
func RegisterVideoDecoder(name string, priority int, open DecoderOpen) error {
	return videoDecoderRegistry.Register(name, priority, open)
}

// Init prepares the decoder for an input format. The format is deep
// copied, the output format starts as the same category with no codec,
// and the module, description, and every function slot are cleared.
func (d *Decoder) Init(fmtIn *format.Format) {
	d.ExtraPictureBuffers = 0
	d.FrameDropAllowed = false

	d.Decode = nil
	d.GetCC = nil
	d.Packetize = nil
	d.Flush = nil
	d.mod = nil
	d.modClose = nil
	d.Description = nil

	d.FmtIn = fmtIn.Copy()
	d.FmtOut = format.New(fmtIn.Category, 0)

	logrus.WithFields(logrus.Fields{
		"function": "Init",
		"category": d.FmtIn.Category.String(),
		"codec":    d.FmtIn.Codec.String(),
	}).Debug("decoder initialized")
}

// Clean releases what the decoder owns: the loaded module and its
// slots, both formats' owned substructures, and the description. Safe
// to call when any of these are already empty, and safe to call twice.
func (d *Decoder) Clean() {
	if d.mod != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Clean",
			"module":   d.mod.Name(),
		}).Debug("unloading decoder module")

		if d.modClose != nil {
			d.modClose(d)
		}
		d.mod = nil
		d.modClose = nil
		d.Decode = nil
		d.GetCC = nil
		d.Packetize = nil
		d.Flush = nil
	}

	d.FmtIn.Clean()
	d.FmtOut.Clean()

	if d.Description != nil {
		d.Description = nil
	}
}

// Destroy cleans the decoder and gives up its storage. A nil decoder is
// a no-op.
func (d *Decoder) Destroy() {
	if d == nil {
		return
	}
	d.Clean()
}

// Load selects a decoder module for the input format's category, the
// same way decoder devices are selected: a non-empty preferred name is
// the only module tried, an empty name tries all in priority order, and
// a failed candidate is rolled back before the next one runs, so no
// slots from a declined module survive. On success the module owns the
// decoder's slots until Clean unloads it.
func (d *Decoder) Load(preferred string) error {
	if d.mod != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Load",
			"module":   d.mod.Name(),
		}).Error("decoder already has a loaded module")
		return ErrModuleLoaded
	}

	var registry *module.Registry[DecoderOpen]
	switch d.FmtIn.Category {
	case format.CategoryAudio:
		registry = audioDecoderRegistry
	case format.CategoryVideo:
		registry = videoDecoderRegistry
	default:
		logrus.WithFields(logrus.Fields{
			"function": "Load",
			"category": d.FmtIn.Category.String(),
		}).Error("no decoder capability for this category")
		return fmt.Errorf("%w: %s", ErrUnknownCategory, d.FmtIn.Category)
	}

	mod, err := registry.Load(preferred, preferred != "", func(cand module.Candidate[DecoderOpen]) error {
		return d.openModuleCandidate(cand)
	})
	if err != nil {
		return err
	}

	d.mod = mod

	logrus.WithFields(logrus.Fields{
		"function": "Load",
		"module":   mod.Name(),
		"codec":    d.FmtIn.Codec.String(),
	}).Info("decoder module loaded")
	return nil
}

// openModuleCandidate runs one module's open routine under the rollback
// contract: a declined or failed candidate leaves every slot unset. A
// success that sets no Decode slot is a module bug; it is logged and
// the candidate is treated as failed.
func (d *Decoder) openModuleCandidate(cand module.Candidate[DecoderOpen]) error {
	err := cand.Open(d)
	if err != nil {
		d.clearModuleSlots()
		return err
	}

	if d.Decode == nil {
		logrus.WithFields(logrus.Fields{
			"function":  "openModuleCandidate",
			"candidate": cand.Name,
		}).Error("module reported success without setting the decode slot")

		d.clearModuleSlots()
		return fmt.Errorf("%w: %q set no decode slot", ErrBackendContract, cand.Name)
	}
	return nil
}

func (d *Decoder) clearModuleSlots() {
	d.Decode = nil
	d.GetCC = nil
	d.Packetize = nil
	d.Flush = nil
	d.modClose = nil
	d.Description = nil
}

// SetModuleClose registers the hook Clean invokes before the loaded
// module's slots are cleared. Only the opening module calls this.
func (d *Decoder) SetModuleClose(close func(dec *Decoder)) {
	d.modClose = close
}

// Module identifies the loaded decoder module, nil when none is loaded.
func (d *Decoder) Module() *module.Module {
	return d.mod
}

// requireVideoCallbacks enforces the usage contract of the video
// helpers: video input category and a populated callback table. A
// violation is a caller bug, logged and reported instead of invoking a
// callback with broken preconditions.
func (d *Decoder) requireVideoCallbacks(operation string) error {
	if d.FmtIn.Category != format.CategoryVideo {
		logrus.WithFields(logrus.Fields{
			"function": operation,
			"category": d.FmtIn.Category.String(),
		}).Error("video operation on a non-video decoder")
		return ErrDecoderNotVideo
	}
	if d.Cbs == nil {
		logrus.WithFields(logrus.Fields{
			"function": operation,
		}).Error("video operation without decoder callbacks")
		return ErrCallbacksNotSet
	}
	return nil
}

// UpdateVideoOutput tells the owner the decoder's output video format
// changed, passing the video context the new stream state lives in
// (nil for plain memory output). Valid only on a video decoder with a
// callback table carrying the format update hook.
func (d *Decoder) UpdateVideoOutput(vctx *VideoContext) error {
	if err := d.requireVideoCallbacks("UpdateVideoOutput"); err != nil {
		return err
	}
	if d.Cbs.VideoFormatUpdate == nil {
		logrus.WithFields(logrus.Fields{
			"function": "UpdateVideoOutput",
		}).Error("format update callback not set")
		return ErrFormatUpdateNotSet
	}
	return d.Cbs.VideoFormatUpdate(d, vctx)
}

// UpdateVideoFormat is UpdateVideoOutput with no video context.
func (d *Decoder) UpdateVideoFormat() error {
	return d.UpdateVideoOutput(nil)
}

// NewPicture allocates one output picture: through the owner's buffer
// allocation hook when set, otherwise directly from the decoder's
// output video format. The fallback lets simple backends omit custom
// allocation entirely.
func (d *Decoder) NewPicture() (*picture.Picture, error) {
	if err := d.requireVideoCallbacks("NewPicture"); err != nil {
		return nil, err
	}
	if d.Cbs.VideoBufferNew == nil {
		return picture.NewFromFormat(&d.FmtOut.Video)
	}
	return d.Cbs.VideoBufferNew(d)
}

// AbortPictures forwards the abort flag to the owner's buffer producer
// when an abort hook is present: true asks it to stop handing out
// pictures and reclaim outstanding ones, false resumes normal
// production. Without a hook this is a no-op.
func (d *Decoder) AbortPictures(abort bool) error {
	if err := d.requireVideoCallbacks("AbortPictures"); err != nil {
		return err
	}
	if d.Cbs.AbortPictures != nil {
		d.Cbs.AbortPictures(d, abort)
	}
	return nil
}
