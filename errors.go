package mediacore

import "errors"

// Sentinel errors for mediacore operations.
// These errors enable reliable error classification using errors.Is().

// Decoder device errors.
var (
	// ErrNoDevice indicates no decoder device backend could be opened.
	ErrNoDevice = errors.New("no decoder device backend available")

	// ErrBackendContract indicates a backend violated the open contract:
	// it reported success without installing its type tag and operations,
	// or a decoder module reported success without setting a decode slot.
	ErrBackendContract = errors.New("backend violated the open contract")
)

// Video context errors.
var (
	// ErrPrivateSize indicates a video context private payload size was
	// rejected; no context is created.
	ErrPrivateSize = errors.New("invalid video context private size")
)

// Decoder usage-contract errors. These indicate caller bugs: they are
// logged at error level and returned instead of invoking a callback
// with a violated precondition.
var (
	// ErrDecoderNotVideo indicates a video-only operation was called on
	// a decoder whose input format is not video.
	ErrDecoderNotVideo = errors.New("decoder input format is not video")

	// ErrCallbacksNotSet indicates the decoder owner did not populate
	// the output callback table before using it.
	ErrCallbacksNotSet = errors.New("decoder callbacks not set")

	// ErrFormatUpdateNotSet indicates the callback table carries no
	// format update hook.
	ErrFormatUpdateNotSet = errors.New("format update callback not set")
)

// Decoder module errors.
var (
	// ErrModuleIncompatible is returned by a decoder module's open
	// routine to decline an input format it cannot handle.
	ErrModuleIncompatible = errors.New("module incompatible with input format")

	// ErrModuleLoaded indicates the decoder already has a loaded module;
	// Clean must run before another Load.
	ErrModuleLoaded = errors.New("decoder module already loaded")

	// ErrUnknownCategory indicates the decoder input format category has
	// no decoder capability to select from.
	ErrUnknownCategory = errors.New("no decoder capability for format category")
)
