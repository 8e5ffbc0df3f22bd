// Package memdev provides the system-memory decoder device backend.
//
// A memory device represents plain CPU-addressable picture storage. It
// has no hardware to probe, so opening always succeeds, which makes it
// the fallback candidate every selection can land on. Hardware backends
// register at higher priorities and win when their devices exist.
package memdev

import (
	"github.com/opd-ai/mediacore"
	"github.com/sirupsen/logrus"
)

const (
	// Name is the module name the backend registers under.
	Name = "memdev"

	// Priority ranks the backend below every hardware candidate.
	Priority = 10
)

func init() {
	if err := mediacore.RegisterDevice(Name, Priority, Open); err != nil {
		panic("memdev: register device backend: " + err.Error())
	}
}

// backend is the device-side state. System memory holds no OS handles,
// so there is nothing beyond the tag to carry.
type backend struct{}

// Close implements mediacore.DeviceBackend.
func (backend) Close(device *mediacore.DecoderDevice) {
	logrus.WithFields(logrus.Fields{
		"function": "Close",
		"device":   device.ID(),
	}).Debug("memory decoder device closed")
}

// Open is the registered open routine. It tags the device as a memory
// device and installs the backend state.
func Open(device *mediacore.DecoderDevice, _ *mediacore.Window) error {
	device.Type = mediacore.DeviceTypeMemory
	device.Backend = backend{}

	logrus.WithFields(logrus.Fields{
		"function": "Open",
		"device":   device.ID(),
	}).Debug("memory decoder device opened")
	return nil
}

// NewVideoContext creates a video context for pictures that live in
// system memory, co-owning device for the context's lifetime. The
// private payload is zeroed on teardown, so stale aliases read zeros
// instead of the last stream state.
func NewVideoContext(device *mediacore.DecoderDevice, privateSize int) (*mediacore.VideoContext, error) {
	return mediacore.NewVideoContext(device, mediacore.VideoContextMemory, privateSize, &mediacore.VideoContextOps{
		Destroy: func(private []byte) {
			for i := range private {
				private[i] = 0
			}
			logrus.WithFields(logrus.Fields{
				"function":     "Destroy",
				"private_size": len(private),
			}).Debug("memory video context destroyed")
		},
	})
}
