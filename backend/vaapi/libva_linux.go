//go:build linux

package vaapi

import (
	"fmt"
	"os"
	"sync"

	"github.com/ebitengine/purego"
	"github.com/opd-ai/mediacore"
	"github.com/sirupsen/logrus"
)

// libva state, loaded once per process.
var (
	libvaOnce    sync.Once
	libvaInitErr error
	libvaLoaded  bool
)

// libva function pointers.
var (
	vaGetDisplayDRM func(fd int32) uintptr
	vaInitialize    func(display uintptr, major, minor *int32) int32
	vaTerminate     func(display uintptr) int32
	vaErrorStr      func(status int32) string
)

const vaStatusSuccess = 0

// dlopenFirst loads the first of the given shared-object names that
// resolves.
func dlopenFirst(names ...string) (uintptr, error) {
	var lastErr error
	for _, name := range names {
		handle, err := purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			return handle, nil
		}
		lastErr = err
	}
	return 0, lastErr
}

func initLibva() {
	libvaOnce.Do(func() {
		drm, err := dlopenFirst("libva-drm.so.2", "libva-drm.so")
		if err != nil {
			libvaInitErr = fmt.Errorf("load libva-drm: %w", err)
			return
		}
		va, err := dlopenFirst("libva.so.2", "libva.so")
		if err != nil {
			libvaInitErr = fmt.Errorf("load libva: %w", err)
			return
		}

		purego.RegisterLibFunc(&vaGetDisplayDRM, drm, "vaGetDisplayDRM")
		purego.RegisterLibFunc(&vaInitialize, va, "vaInitialize")
		purego.RegisterLibFunc(&vaTerminate, va, "vaTerminate")
		purego.RegisterLibFunc(&vaErrorStr, va, "vaErrorStr")

		libvaLoaded = true
	})
}

func platformAvailable() bool {
	initLibva()
	return libvaLoaded
}

// openRenderNode opens the window's configured DRM render node, or
// probes the standard /dev/dri/renderD* range when none is configured.
// A nil window carries no node configuration and goes straight to the
// probe.
func openRenderNode(window *mediacore.Window) (*os.File, error) {
	if window != nil {
		if path := window.DRMDevice(); path != "" {
			return os.OpenFile(path, os.O_RDWR, 0)
		}
	}

	// Render nodes start at minor 128.
	for minor := 128; minor < 128+16; minor++ {
		path := fmt.Sprintf("/dev/dri/renderD%d", minor)
		node, err := os.OpenFile(path, os.O_RDWR, 0)
		if err == nil {
			return node, nil
		}
	}
	return nil, fmt.Errorf("no usable drm render node under /dev/dri")
}

// backend is the device-side state: the initialized display handle.
// The render node stays open for the display's lifetime and is closed
// by the device's resource teardown after Close runs.
type backend struct {
	display uintptr
}

// Close implements mediacore.DeviceBackend.
func (b *backend) Close(device *mediacore.DecoderDevice) {
	if status := vaTerminate(b.display); status != vaStatusSuccess {
		logrus.WithFields(logrus.Fields{
			"function": "Close",
			"device":   device.ID(),
			"status":   status,
			"error":    vaErrorStr(status),
		}).Error("vaTerminate failed")
		return
	}

	logrus.WithFields(logrus.Fields{
		"function": "Close",
		"device":   device.ID(),
	}).Debug("va-api decoder device closed")
}

func openPlatform(device *mediacore.DecoderDevice, window *mediacore.Window) error {
	initLibva()
	if !libvaLoaded {
		return libvaInitErr
	}

	node, err := openRenderNode(window)
	if err != nil {
		return err
	}
	// From here the node belongs to the device: rollback on a failed
	// open and the final teardown both close it.
	device.AttachCleanup(func() {
		node.Close()
	})

	display := vaGetDisplayDRM(int32(node.Fd()))
	if display == 0 {
		return fmt.Errorf("vaGetDisplayDRM: no display for %s", node.Name())
	}

	var major, minor int32
	if status := vaInitialize(display, &major, &minor); status != vaStatusSuccess {
		return fmt.Errorf("vaInitialize: %s (status %d)", vaErrorStr(status), status)
	}

	device.Type = mediacore.DeviceTypeVAAPI
	device.Backend = &backend{display: display}

	logrus.WithFields(logrus.Fields{
		"function": "openPlatform",
		"device":   device.ID(),
		"node":     node.Name(),
		"version":  fmt.Sprintf("%d.%d", major, minor),
	}).Info("va-api decoder device opened")
	return nil
}
