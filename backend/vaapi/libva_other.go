//go:build !linux

package vaapi

import (
	"errors"

	"github.com/opd-ai/mediacore"
)

var errUnsupported = errors.New("va-api decoding is only available on linux")

func platformAvailable() bool {
	return false
}

func openPlatform(_ *mediacore.DecoderDevice, _ *mediacore.Window) error {
	return errUnsupported
}
