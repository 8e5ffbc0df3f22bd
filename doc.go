// Package mediacore implements the resource lifecycle core of a media
// decoding pipeline.
//
// The package governs two reference-counted entities - the decoder
// device (a handle to an opened hardware or software acceleration
// backend) and the video context (backend-typed per-stream state,
// optionally tied to a device) - plus the lifecycle of a decoder
// instance that owns format descriptors and at most one loaded module.
// Backends plug in through capability registries; selection tries
// candidates in priority order and rolls each failed attempt back so no
// residue from one backend reaches the next.
//
// # Getting Started
//
// Import the backends you want (they register themselves) and open a
// device against a capability context:
//
//	import (
//	    "github.com/opd-ai/mediacore"
//	    _ "github.com/opd-ai/mediacore/backend/memdev"
//	    _ "github.com/opd-ai/mediacore/backend/vaapi"
//	)
//
//	window := mediacore.NewWindow()
//	device, err := mediacore.CreateDecoderDevice(window)
//	if err != nil {
//	    // no acceleration backend; fall back to a software path
//	}
//	defer device.Release()
//
// The preferred backend is inherited from the window's "dec-dev"
// variable or the MEDIACORE_DEC_DEV environment variable; a named
// backend is the only one tried.
//
// # Core Types
//
//   - [DecoderDevice]: refcounted handle to an opened backend
//   - [VideoContext]: refcounted, backend-typed per-stream state
//   - [Decoder]: decoder instance with format descriptors and function slots
//   - [DecoderCallbacks]: output-side hooks the decoder owner populates
//   - [Window]: capability context passed to backend open routines
//
// # Reference Counting
//
// Devices, video contexts, and pictures share one ownership protocol:
// creation hands the caller one reference, Hold adds an owner, Release
// removes one, and the last release runs the backend teardown exactly
// once, under any concurrent interleaving. Every Hold and every
// creation must be paired with exactly one Release.
//
//	shared := device.Hold()
//	go func() {
//	    defer shared.Release()
//	    // use shared
//	}()
//
// # Video Contexts
//
// A backend attaches per-stream state to a video context as a type
// tagged private payload. Access requires the matching tag; a mismatch
// yields nil rather than bytes reinterpreted under a foreign layout:
//
//	vctx, err := mediacore.NewVideoContext(device,
//	    mediacore.VideoContextVAAPI, payloadSize, &mediacore.VideoContextOps{
//	        Destroy: func(private []byte) { /* release backend state */ },
//	    })
//	payload := vctx.Private(mediacore.VideoContextVAAPI) // nil on tag mismatch
//
// The context holds its own device reference for its full lifetime;
// HoldDevice hands co-ownership to another thread.
//
// # Decoder Lifecycle
//
// A decoder is initialized with an input format, loads a module for the
// format's category, and is cleaned exactly once at the end:
//
//	var dec mediacore.Decoder
//	dec.Init(&fmtIn)
//	dec.Cbs = callbacks
//	if err := dec.Load(""); err != nil {
//	    // no module accepts the format
//	}
//	defer dec.Destroy()
//
// The video helpers UpdateVideoOutput, UpdateVideoFormat, NewPicture,
// and AbortPictures delegate to the callback table and enforce its
// usage contract: video input category and populated callbacks.
//
// # Backends
//
// Decoder device backends and decoder modules live in backend/
// subpackages and register from init functions:
//
//   - backend/memdev: system-memory device, always available
//   - backend/vaapi: VA-API device via libva, Linux only
//   - backend/opusdec: Opus audio decoder module
//   - backend/mp3dec: MP3 audio decoder module
//
// # Thread Safety
//
// Reference counts are atomic: Hold and Release may race freely and
// exactly one releaser observes the drop to zero. Registries accept
// concurrent registration and selection. A device's or context's
// backend-private state is mutated exclusively by its own backend; the
// core never touches bytes behind the type tag.
//
// # Integration Architecture
//
// The root package carries the lifecycle API and delegates focused
// concerns to subpackages:
//
//   - [github.com/opd-ai/mediacore/refcount]: shared atomic reference counter
//   - [github.com/opd-ai/mediacore/module]: capability registries and selection
//   - [github.com/opd-ai/mediacore/format]: elementary stream format descriptors
//   - [github.com/opd-ai/mediacore/picture]: refcounted video frame buffers
//   - [github.com/opd-ai/mediacore/limits]: size bounds and validation
package mediacore
