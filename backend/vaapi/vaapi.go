// Package vaapi provides the VA-API decoder device backend.
//
// The backend loads libva at runtime, so binaries run on machines
// without it installed: when the libraries or a DRM render node are
// absent, opening fails like any declined candidate and selection
// moves on to the next backend. Only linux is supported; elsewhere the
// backend always declines.
package vaapi

import (
	"github.com/opd-ai/mediacore"
)

const (
	// Name is the module name the backend registers under.
	Name = "vaapi"

	// Priority ranks hardware decoding above the memory fallback.
	Priority = 100
)

func init() {
	if err := mediacore.RegisterDevice(Name, Priority, Open); err != nil {
		panic("vaapi: register device backend: " + err.Error())
	}
}

// Open is the registered open routine. On linux it loads libva,
// acquires a DRM render node, and initializes a display; on other
// platforms it declines.
func Open(device *mediacore.DecoderDevice, window *mediacore.Window) error {
	return openPlatform(device, window)
}

// Available reports whether the libva libraries could be loaded in
// this process. A true result does not guarantee a usable render node.
func Available() bool {
	return platformAvailable()
}
