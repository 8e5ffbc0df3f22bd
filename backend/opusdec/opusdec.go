// Package opusdec provides the Opus audio decoder module, backed by the
// pure-Go pion/opus decoder.
package opusdec

import (
	"fmt"

	"github.com/opd-ai/mediacore"
	"github.com/opd-ai/mediacore/format"
	"github.com/pion/opus"
	"github.com/sirupsen/logrus"
)

const (
	// Name is the module name the decoder registers under.
	Name = "opus"

	// Priority ranks Opus above the other built-in audio decoders.
	Priority = 80
)

// frameBufferSize holds one decoded frame: 1920 samples (40ms at
// 48kHz) of 16-bit PCM.
const frameBufferSize = 1920 * 2

func init() {
	if err := mediacore.RegisterAudioDecoder(Name, Priority, Open); err != nil {
		panic("opusdec: register audio decoder: " + err.Error())
	}
}

// state carries the pion decoder across Decode calls.
type state struct {
	decoder opus.Decoder
}

// Open is the registered open routine. It declines anything that is not
// Opus audio and installs the decode and flush slots. Decoded PCM is
// signed 16-bit little-endian at the bandwidth's sample rate.
func Open(dec *mediacore.Decoder) error {
	if dec.FmtIn.Category != format.CategoryAudio || dec.FmtIn.Codec != format.CodecOpus {
		return mediacore.ErrModuleIncompatible
	}

	s := &state{decoder: opus.NewDecoder()}

	dec.FmtOut.Codec = format.CodecS16L
	dec.FmtOut.Audio = format.AudioFormat{
		SampleRate:    48000,
		Channels:      channelsOrStereo(dec.FmtIn.Audio.Channels),
		BitsPerSample: 16,
	}

	dec.Description = format.NewMeta()
	dec.Description.Set(format.MetaCodec, "Opus")
	dec.Description.Set(format.MetaDescription, "Opus audio decoder")

	dec.Decode = s.decode
	dec.Flush = s.flush
	dec.SetModuleClose(s.close)

	logrus.WithFields(logrus.Fields{
		"function":    "Open",
		"sample_rate": dec.FmtOut.Audio.SampleRate,
		"channels":    dec.FmtOut.Audio.Channels,
	}).Debug("opus decoder module opened")
	return nil
}

func channelsOrStereo(channels uint8) uint8 {
	if channels == 0 {
		return 2
	}
	return channels
}

// decode consumes one Opus frame and queues its PCM through the owner.
func (s *state) decode(dec *mediacore.Decoder, data []byte) error {
	if dec.Cbs == nil || dec.Cbs.QueueAudio == nil {
		logrus.WithFields(logrus.Fields{
			"function": "decode",
		}).Error("decoding without an audio queue callback")
		return mediacore.ErrCallbacksNotSet
	}
	if len(data) == 0 {
		return nil
	}

	out := make([]byte, frameBufferSize)
	bandwidth, isStereo, err := s.decoder.Decode(data, out)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":  "decode",
			"data_size": len(data),
			"error":     err.Error(),
		}).Error("opus frame decode failed")
		return fmt.Errorf("opus decode: %w", err)
	}

	// The stream's layout is authoritative over whatever the container
	// declared.
	dec.FmtOut.Audio.SampleRate = uint32(bandwidth.SampleRate())
	if isStereo {
		dec.FmtOut.Audio.Channels = 2
	} else {
		dec.FmtOut.Audio.Channels = 1
	}

	return dec.Cbs.QueueAudio(dec, out)
}

// flush discards decoder state for a seek or stream restart.
func (s *state) flush(*mediacore.Decoder) {
	s.decoder = opus.NewDecoder()

	logrus.WithFields(logrus.Fields{
		"function": "flush",
	}).Debug("opus decoder state discarded")
}

func (s *state) close(*mediacore.Decoder) {
	logrus.WithFields(logrus.Fields{
		"function": "close",
	}).Debug("opus decoder module closed")
}
