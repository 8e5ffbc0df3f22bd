// Package mp3dec provides the MP3 audio decoder module, backed by the
// pure-Go hajimehoshi/go-mp3 decoder.
package mp3dec

import (
	"bytes"
	"fmt"
	"io"

	mp3 "github.com/hajimehoshi/go-mp3"
	"github.com/opd-ai/mediacore"
	"github.com/opd-ai/mediacore/format"
	"github.com/sirupsen/logrus"
)

const (
	// Name is the module name the decoder registers under.
	Name = "mp3"

	// Priority ranks MP3 below the Opus decoder.
	Priority = 60
)

// readChunkSize is how much decoded PCM one drain step reads.
const readChunkSize = 8192

func init() {
	if err := mediacore.RegisterAudioDecoder(Name, Priority, Open); err != nil {
		panic("mp3dec: register audio decoder: " + err.Error())
	}
}

// state carries the go-mp3 decoder for the segment being drained. The
// library wants a stream, so each Decode call must start at a frame
// header; the packetize slot of an upstream module provides that.
type state struct {
	decoder *mp3.Decoder
}

// Open is the registered open routine. It declines anything that is not
// MPEG layer III audio and installs the decode and flush slots. Decoded
// PCM is signed 16-bit little-endian stereo, the library's only output
// layout.
func Open(dec *mediacore.Decoder) error {
	if dec.FmtIn.Category != format.CategoryAudio || dec.FmtIn.Codec != format.CodecMP3 {
		return mediacore.ErrModuleIncompatible
	}

	s := &state{}

	dec.FmtOut.Codec = format.CodecS16L
	dec.FmtOut.Audio = format.AudioFormat{
		SampleRate:    dec.FmtIn.Audio.SampleRate,
		Channels:      2,
		BitsPerSample: 16,
	}

	dec.Description = format.NewMeta()
	dec.Description.Set(format.MetaCodec, "MPEG layer III")
	dec.Description.Set(format.MetaDescription, "MP3 audio decoder")

	dec.Decode = s.decode
	dec.Flush = s.flush
	dec.SetModuleClose(s.close)

	logrus.WithFields(logrus.Fields{
		"function": "Open",
		"channels": dec.FmtOut.Audio.Channels,
	}).Debug("mp3 decoder module opened")
	return nil
}

// decode drains one segment of frames: the decoder is created over the
// call's data, its PCM is queued in chunks until the segment is
// exhausted, and the next call starts fresh at the next frame header.
// The first decoded segment fixes the output sample rate.
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

	if s.decoder == nil {
		decoder, err := mp3.NewDecoder(bytes.NewReader(data))
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function":  "decode",
				"data_size": len(data),
				"error":     err.Error(),
			}).Error("mp3 frame header rejected")
			return fmt.Errorf("mp3 decode: %w", err)
		}
		s.decoder = decoder
		dec.FmtOut.Audio.SampleRate = uint32(decoder.SampleRate())
	}

	for {
		buf := make([]byte, readChunkSize)
		n, err := s.decoder.Read(buf)
		if n > 0 {
			if qerr := dec.Cbs.QueueAudio(dec, buf[:n]); qerr != nil {
				s.decoder = nil
				return qerr
			}
		}
		if err == io.EOF {
			s.decoder = nil
			return nil
		}
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "decode",
				"error":    err.Error(),
			}).Error("mp3 segment decode failed")
			s.decoder = nil
			return fmt.Errorf("mp3 decode: %w", err)
		}
	}
}

// flush discards the in-flight segment for a seek or stream restart.
func (s *state) flush(*mediacore.Decoder) {
	s.decoder = nil

	logrus.WithFields(logrus.Fields{
		"function": "flush",
	}).Debug("mp3 decoder state discarded")
}

func (s *state) close(*mediacore.Decoder) {
	logrus.WithFields(logrus.Fields{
		"function": "close",
	}).Debug("mp3 decoder module closed")
}
