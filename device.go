package mediacore

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/opd-ai/mediacore/module"
	"github.com/opd-ai/mediacore/refcount"
	"github.com/sirupsen/logrus"
)

// DeviceCapability is the capability name decoder device backends
// register under.
const DeviceCapability = "decoder device"

// DeviceType identifies which backend family opened a decoder device.
type DeviceType int

const (
	// DeviceTypeNone marks a device no backend has opened. A device
	// returned by CreateDecoderDevice never carries it; a backend that
	// reports success while leaving it set has violated the open
	// contract.
	DeviceTypeNone DeviceType = iota
	// DeviceTypeVAAPI marks a device opened on VA-API.
	DeviceTypeVAAPI
	// DeviceTypeNVDEC marks a device opened on NVDEC.
	DeviceTypeNVDEC
	// DeviceTypeVideoToolbox marks a device opened on VideoToolbox.
	DeviceTypeVideoToolbox
	// DeviceTypeMemory marks a device backed by system memory.
	DeviceTypeMemory
)

func (t DeviceType) String() string {
	switch t {
	case DeviceTypeVAAPI:
		return "vaapi"
	case DeviceTypeNVDEC:
		return "nvdec"
	case DeviceTypeVideoToolbox:
		return "videotoolbox"
	case DeviceTypeMemory:
		return "memory"
	default:
		return "none"
	}
}

// DeviceBackend is the operations table a backend installs on a device
// it opens. The value also carries the backend's private state: the
// core never inspects it, and only the owning backend's code mutates
// it.
type DeviceBackend interface {
	// Close releases the backend state. It runs exactly once, when the
	// last reference to the device is released.
	Close(device *DecoderDevice)
}

// DeviceOpen is the open routine a decoder device backend registers.
// On success it must set the device's Type and Backend; on failure it
// must return an error and may leave partial state behind, which the
// selection wrapper rolls back before the next candidate runs. The
// window is the one the device was created against and may be nil.
type DeviceOpen func(device *DecoderDevice, window *Window) error

// DecoderDevice is a reference-counted handle to an opened decoder
// backend. It is created through CreateDecoderDevice, shared by holding
// additional references, and torn down exactly once when the last
// reference is released.
type DecoderDevice struct {
	rc refcount.RC
	id uuid.UUID

	// window is the capability context the device was created against.
	window *Window

	// mod identifies the backend implementation the selector chose.
	mod *module.Module

	// res holds backend-attached cleanups, run last-in-first-out when
	// the device is torn down or an open attempt fails.
	res []func()

	// Type and Backend are written by the opening backend and read by
	// everyone else. They must not be mutated after a successful open.
	Type    DeviceType
	Backend DeviceBackend
}

var deviceRegistry = module.New[DeviceOpen](DeviceCapability)

// RegisterDevice adds a decoder device backend to the selection
// registry. Backends usually call it from an init function so a blank
// import wires them in. Priority zero registers a backend that is only
// tried when named through the "dec-dev" configuration.
func RegisterDevice(name string, priority int, open DeviceOpen) error {
	return deviceRegistry.Register(name, priority, open)
}

// DeviceBackends lists the registered backend names in attempt order.
func DeviceBackends() []string {
	return deviceRegistry.Names()
}

// CreateDecoderDevice opens a decoder device against a capability
// context. The preferred backend is inherited from the window's
// "dec-dev" configuration; a named backend is the only one tried, an
// empty name tries every registered backend in priority order. Each
// failed candidate is rolled back before the next one runs, so no
// residue from a failed attempt reaches the backend that succeeds.
//
// The returned device carries one reference owned by the caller. When
// no backend succeeds the error matches both ErrNoDevice and
// module.ErrModuleNotFound.
func CreateDecoderDevice(window *Window) (*DecoderDevice, error) {
	device := &DecoderDevice{
		id:     uuid.New(),
		window: window,
	}

	preferred := ""
	if window != nil {
		preferred = window.InheritString("dec-dev")
	}

	log := logrus.WithFields(logrus.Fields{
		"function":  "CreateDecoderDevice",
		"device_id": device.id.String(),
		"preferred": preferred,
	})
	log.Debug("selecting decoder device backend")

	mod, err := deviceRegistry.Load(preferred, preferred != "", func(cand module.Candidate[DeviceOpen]) error {
		return openDeviceCandidate(device, window, cand)
	})
	if err != nil {
		log.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Warn("no decoder device backend available")
		return nil, fmt.Errorf("%w: %w", ErrNoDevice, err)
	}

	device.mod = mod
	device.rc.Init()

	log.WithFields(logrus.Fields{
		"backend": mod.Name(),
		"type":    device.Type.String(),
	}).Info("decoder device opened")
	return device, nil
}

// openDeviceCandidate runs one backend's open routine under the
// rollback contract: a failed attempt leaves the device in the
// closed/none state with its accumulated resources released, so the
// next candidate starts clean. A success that leaves the type tag unset
// or installs no operations is a backend bug; it is logged and the
// candidate is treated as failed.
func openDeviceCandidate(device *DecoderDevice, window *Window, cand module.Candidate[DeviceOpen]) error {
	err := cand.Open(device, window)
	if err != nil {
		device.clearResources()
		device.Backend = nil
		device.Type = DeviceTypeNone
		return err
	}

	if device.Type == DeviceTypeNone || device.Backend == nil {
		logrus.WithFields(logrus.Fields{
			"function":  "openDeviceCandidate",
			"device_id": device.id.String(),
			"candidate": cand.Name,
			"type":      device.Type.String(),
			"backend":   device.Backend != nil,
		}).Error("backend reported success without installing device state")

		device.clearResources()
		device.Backend = nil
		device.Type = DeviceTypeNone
		return fmt.Errorf("%w: %q left the device unopened", ErrBackendContract, cand.Name)
	}
	return nil
}

// ID returns the device's identity, used in logs.
func (d *DecoderDevice) ID() uuid.UUID {
	return d.id
}

// Window returns the capability context the device was created against.
func (d *DecoderDevice) Window() *Window {
	return d.window
}

// Module identifies the backend implementation the selector chose, nil
// for devices not created through CreateDecoderDevice.
func (d *DecoderDevice) Module() *module.Module {
	return d.mod
}

// AttachCleanup registers a function the device runs on teardown: when
// the open attempt that registered it fails, or after the backend close
// when the last reference is released. Cleanups run last-in-first-out.
// Only the owning backend may call this, during open or while it has
// exclusive ownership of the device.
func (d *DecoderDevice) AttachCleanup(fn func()) {
	d.res = append(d.res, fn)
}

// clearResources runs and drops the attached cleanups in reverse
// registration order.
func (d *DecoderDevice) clearResources() {
	for i := len(d.res) - 1; i >= 0; i-- {
		d.res[i]()
	}
	d.res = nil
}

// Hold adds an owner and returns the same device.
func (d *DecoderDevice) Hold() *DecoderDevice {
	d.rc.Hold()
	return d
}

// Release removes an owner. The last release closes the backend,
// releases the device's accumulated resources, and returns the handle
// to the closed/none state. Every Hold and the creation reference must
// be paired with exactly one Release.
func (d *DecoderDevice) Release() {
	if !d.rc.Release() {
		return
	}

	logrus.WithFields(logrus.Fields{
		"function":  "Release",
		"device_id": d.id.String(),
		"type":      d.Type.String(),
	}).Debug("closing decoder device")

	if d.Backend != nil {
		d.Backend.Close(d)
	}
	d.clearResources()
	d.Backend = nil
	d.Type = DeviceTypeNone
	d.mod = nil
}

// Refs reports the current owner count. Intended for tests and logs.
func (d *DecoderDevice) Refs() int64 {
	return d.rc.Refs()
}
