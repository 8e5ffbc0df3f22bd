package mediacore

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/opd-ai/mediacore/limits"
	"github.com/opd-ai/mediacore/refcount"
	"github.com/sirupsen/logrus"
)

// VideoContextType identifies which backend's layout a video context's
// private payload follows. The zero value is reserved: correct callers
// always create contexts with a named type.
type VideoContextType int

const (
	// VideoContextVAAPI marks a VA-API private payload.
	VideoContextVAAPI VideoContextType = iota + 1
	// VideoContextNVDEC marks an NVDEC private payload.
	VideoContextNVDEC
	// VideoContextVideoToolbox marks a VideoToolbox private payload.
	VideoContextVideoToolbox
	// VideoContextMemory marks a system-memory private payload.
	VideoContextMemory
)

func (t VideoContextType) String() string {
	switch t {
	case VideoContextVAAPI:
		return "vaapi"
	case VideoContextNVDEC:
		return "nvdec"
	case VideoContextVideoToolbox:
		return "videotoolbox"
	case VideoContextMemory:
		return "memory"
	default:
		return "unknown"
	}
}

// VideoContextOps is the operations table of a video context.
type VideoContextOps struct {
	// Destroy runs exactly once, when the last reference to the context
	// is released, with the private payload. It releases whatever
	// backend state the payload encodes.
	Destroy func(private []byte)
}

// VideoContext is reference-counted, backend-typed per-stream state,
// optionally tied to a decoder device whose reference it holds for its
// own lifetime. The private payload's layout is defined solely by the
// backend identified by the type tag; the core never interprets it.
type VideoContext struct {
	rc refcount.RC
	id uuid.UUID

	device      *DecoderDevice
	ops         *VideoContextOps
	privateType VideoContextType
	private     []byte
}

// NewVideoContext creates a video context carrying privateSize payload
// bytes typed by typ. A non-nil device is held for the context's full
// lifetime: the context acquires its own reference, it does not take
// over the caller's. A rejected private size yields no context, and the
// error matches ErrPrivateSize.
func NewVideoContext(device *DecoderDevice, typ VideoContextType, privateSize int, ops *VideoContextOps) (*VideoContext, error) {
	if err := limits.ValidatePrivateSize(privateSize); err != nil {
		logrus.WithFields(logrus.Fields{
			"function":     "NewVideoContext",
			"private_type": typ.String(),
			"private_size": privateSize,
			"error":        err.Error(),
		}).Warn("video context private size rejected")
		return nil, fmt.Errorf("%w: %w", ErrPrivateSize, err)
	}

	vctx := &VideoContext{
		id:          uuid.New(),
		ops:         ops,
		privateType: typ,
		private:     make([]byte, privateSize),
	}
	if device != nil {
		vctx.device = device.Hold()
	}
	vctx.rc.Init()

	log := logrus.WithFields(logrus.Fields{
		"function":     "NewVideoContext",
		"context_id":   vctx.id.String(),
		"private_type": typ.String(),
		"private_size": privateSize,
	})
	if device != nil {
		log = log.WithFields(logrus.Fields{"device_id": device.ID().String()})
	}
	log.Debug("video context created")
	return vctx, nil
}

// ID returns the context's identity, used in logs.
func (v *VideoContext) ID() uuid.UUID {
	return v.id
}

// Private returns the private payload when expected matches the stored
// type tag, nil otherwise. A nil context yields nil. Mismatched access
// never exposes the stored bytes under a foreign layout.
func (v *VideoContext) Private(expected VideoContextType) []byte {
	if v == nil || v.privateType != expected {
		return nil
	}
	return v.private
}

// Type returns the stored type tag. The context must be non-nil;
// calling Type on a nil context is a caller error.
func (v *VideoContext) Type() VideoContextType {
	return v.privateType
}

// Hold adds an owner and returns the same context.
func (v *VideoContext) Hold() *VideoContext {
	v.rc.Hold()
	return v
}

// Release removes an owner. The last release gives up the device
// reference, invokes the destroy hook on the private payload, and drops
// the payload. Every Hold and the creation reference must be paired
// with exactly one Release.
func (v *VideoContext) Release() {
	if !v.rc.Release() {
		return
	}

	logrus.WithFields(logrus.Fields{
		"function":     "Release",
		"context_id":   v.id.String(),
		"private_type": v.privateType.String(),
	}).Debug("destroying video context")

	if v.device != nil {
		v.device.Release()
		v.device = nil
	}
	if v.ops != nil && v.ops.Destroy != nil {
		v.ops.Destroy(v.private)
	}
	v.private = nil
}

// HoldDevice returns a fresh reference to the context's device, which
// the caller co-owns and must release independently of the context's
// own reference. It returns nil when the context holds no device.
func (v *VideoContext) HoldDevice() *DecoderDevice {
	if v.device == nil {
		return nil
	}
	return v.device.Hold()
}

// Refs reports the current owner count. Intended for tests and logs.
func (v *VideoContext) Refs() int64 {
	return v.rc.Refs()
}
