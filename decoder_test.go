package mediacore

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/opd-ai/mediacore/format"
	"github.com/opd-ai/mediacore/module"
	"github.com/opd-ai/mediacore/picture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// registerGatedVideoDecoder adds a uniquely named video decoder module
// that only opens for dec, so tests sharing the process-wide registry
// never select each other's modules.
func registerGatedVideoDecoder(t *testing.T, dec *Decoder, priority int, open DecoderOpen) string {
	t.Helper()

	name := fmt.Sprintf("testvdec-%s", uuid.NewString()[:8])
	require.NoError(t, RegisterVideoDecoder(name, priority, func(d *Decoder) error {
		if d != dec {
			return errDecline
		}
		return open(d)
	}))
	return name
}

func registerGatedAudioDecoder(t *testing.T, dec *Decoder, priority int, open DecoderOpen) string {
	t.Helper()

	name := fmt.Sprintf("testadec-%s", uuid.NewString()[:8])
	require.NoError(t, RegisterAudioDecoder(name, priority, func(d *Decoder) error {
		if d != dec {
			return errDecline
		}
		return open(d)
	}))
	return name
}

func videoInputFormat() format.Format {
	fmtIn := format.New(format.CategoryVideo, format.CodecVP8)
	fmtIn.Video.Width = 64
	fmtIn.Video.Height = 48
	return fmtIn
}

func TestDecoderInitCopiesInputFormat(t *testing.T) {
	fmtIn := videoInputFormat()
	require.NoError(t, fmtIn.SetExtra([]byte{0xDE, 0xAD}))

	var dec Decoder
	dec.Init(&fmtIn)

	// The decoder's copy does not follow later mutation of the source.
	fmtIn.Video.Width = 1920
	fmtIn.Extra[0] = 0xFF

	assert.Equal(t, 64, dec.FmtIn.Video.Width)
	assert.Equal(t, []byte{0xDE, 0xAD}, dec.FmtIn.Extra)
	assert.Equal(t, format.CodecVP8, dec.FmtIn.Codec)
}

func TestDecoderInitStartsEmpty(t *testing.T) {
	fmtIn := videoInputFormat()

	var dec Decoder
	dec.Init(&fmtIn)

	assert.Equal(t, format.CategoryVideo, dec.FmtOut.Category, "output category follows input")
	assert.Equal(t, format.FourCC(0), dec.FmtOut.Codec, "no output codec until a module sets one")

	assert.Nil(t, dec.Decode)
	assert.Nil(t, dec.GetCC)
	assert.Nil(t, dec.Packetize)
	assert.Nil(t, dec.Flush)
	assert.Nil(t, dec.Description)
	assert.Nil(t, dec.Module())
	assert.False(t, dec.FrameDropAllowed)
	assert.Zero(t, dec.ExtraPictureBuffers)
}

func TestDecoderInitClearsPreviousState(t *testing.T) {
	fmtIn := videoInputFormat()

	var dec Decoder
	dec.Init(&fmtIn)
	dec.Decode = func(*Decoder, []byte) error { return nil }
	dec.Flush = func(*Decoder) {}
	dec.FrameDropAllowed = true
	dec.ExtraPictureBuffers = 3
	dec.Description = format.NewMeta()

	dec.Init(&fmtIn)

	assert.Nil(t, dec.Decode)
	assert.Nil(t, dec.Flush)
	assert.Nil(t, dec.Description)
	assert.False(t, dec.FrameDropAllowed)
	assert.Zero(t, dec.ExtraPictureBuffers)
}

func TestDecoderLoadSelectsHighestPriority(t *testing.T) {
	fmtIn := videoInputFormat()

	var dec Decoder
	dec.Init(&fmtIn)

	registerGatedVideoDecoder(t, &dec, 100, func(d *Decoder) error {
		t.Error("lower priority module must not be tried once a higher one succeeds")
		return errDecline
	})
	want := registerGatedVideoDecoder(t, &dec, 200, func(d *Decoder) error {
		d.Decode = func(*Decoder, []byte) error { return nil }
		return nil
	})

	require.NoError(t, dec.Load(""))
	require.NotNil(t, dec.Module())
	assert.Equal(t, want, dec.Module().Name())
	assert.NotNil(t, dec.Decode)

	dec.Clean()
}

func TestDecoderLoadPreferredIsExclusive(t *testing.T) {
	fmtIn := videoInputFormat()

	var dec Decoder
	dec.Init(&fmtIn)

	registerGatedVideoDecoder(t, &dec, 500, func(d *Decoder) error {
		t.Error("non-preferred module must not be tried when a name is given")
		return errDecline
	})
	want := registerGatedVideoDecoder(t, &dec, 1, func(d *Decoder) error {
		d.Decode = func(*Decoder, []byte) error { return nil }
		return nil
	})

	require.NoError(t, dec.Load(want))
	assert.Equal(t, want, dec.Module().Name())

	dec.Clean()
}

func TestDecoderLoadUnknownPreferredName(t *testing.T) {
	fmtIn := videoInputFormat()

	var dec Decoder
	dec.Init(&fmtIn)

	err := dec.Load("no-such-module-" + uuid.NewString()[:8])
	require.Error(t, err)
	assert.ErrorIs(t, err, module.ErrModuleNotFound)
	assert.Nil(t, dec.Module())
}

func TestDecoderLoadUnknownCategory(t *testing.T) {
	fmtIn := format.New(format.CategoryData, 0)

	var dec Decoder
	dec.Init(&fmtIn)

	err := dec.Load("")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestDecoderLoadTwiceFails(t *testing.T) {
	fmtIn := videoInputFormat()

	var dec Decoder
	dec.Init(&fmtIn)

	name := registerGatedVideoDecoder(t, &dec, 10, func(d *Decoder) error {
		d.Decode = func(*Decoder, []byte) error { return nil }
		return nil
	})
	require.NoError(t, dec.Load(name))

	assert.ErrorIs(t, dec.Load(name), ErrModuleLoaded)

	dec.Clean()
}

func TestDecoderLoadRollsBackFailedCandidate(t *testing.T) {
	fmtIn := videoInputFormat()

	var dec Decoder
	dec.Init(&fmtIn)

	firstCloses := 0
	registerGatedVideoDecoder(t, &dec, 200, func(d *Decoder) error {
		// Install every slot, then fail: none of this may survive.
		d.Decode = func(*Decoder, []byte) error { return nil }
		d.GetCC = func(*Decoder) []byte { return nil }
		d.Packetize = func(*Decoder, []byte) ([][]byte, error) { return nil, nil }
		d.Flush = func(*Decoder) {}
		d.Description = format.NewMeta()
		d.SetModuleClose(func(*Decoder) { firstCloses++ })
		return errDecline
	})

	sawCleanSlots := false
	want := registerGatedVideoDecoder(t, &dec, 100, func(d *Decoder) error {
		sawCleanSlots = d.Decode == nil && d.GetCC == nil && d.Packetize == nil &&
			d.Flush == nil && d.Description == nil
		d.Decode = func(*Decoder, []byte) error { return nil }
		return nil
	})

	require.NoError(t, dec.Load(""))
	assert.True(t, sawCleanSlots, "failed candidate left state behind")
	assert.Equal(t, want, dec.Module().Name())
	assert.Nil(t, dec.GetCC, "rolled back slot must stay unset")

	dec.Clean()
	assert.Equal(t, 0, firstCloses, "a module that never loaded is never closed")
}

func TestDecoderLoadContractViolation(t *testing.T) {
	fmtIn := videoInputFormat()

	var dec Decoder
	dec.Init(&fmtIn)

	name := registerGatedVideoDecoder(t, &dec, 10, func(d *Decoder) error {
		d.Flush = func(*Decoder) {}
		return nil // success without a Decode slot
	})

	err := dec.Load(name)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set no decode slot")
	assert.Nil(t, dec.Module())
	assert.Nil(t, dec.Flush, "contract violation is rolled back like a failure")
}

func TestDecoderCleanUnloadsModule(t *testing.T) {
	fmtIn := videoInputFormat()
	require.NoError(t, fmtIn.SetExtra([]byte{1, 2, 3}))

	var dec Decoder
	dec.Init(&fmtIn)

	closes := 0
	name := registerGatedVideoDecoder(t, &dec, 10, func(d *Decoder) error {
		d.Decode = func(*Decoder, []byte) error { return nil }
		d.Flush = func(*Decoder) {}
		d.Description = format.NewMeta()
		d.SetModuleClose(func(*Decoder) { closes++ })
		return nil
	})
	require.NoError(t, dec.Load(name))

	dec.Clean()

	assert.Equal(t, 1, closes)
	assert.Nil(t, dec.Module())
	assert.Nil(t, dec.Decode)
	assert.Nil(t, dec.Flush)
	assert.Nil(t, dec.Description)
	assert.Nil(t, dec.FmtIn.Extra, "owned format substructures are released")

	// Clean is idempotent: a second call finds nothing to unload.
	dec.Clean()
	assert.Equal(t, 1, closes)
}

func TestDecoderDestroyNilReceiver(t *testing.T) {
	var dec *Decoder
	dec.Destroy()
}

func TestDecoderDestroyCleans(t *testing.T) {
	fmtIn := videoInputFormat()

	dec := &Decoder{}
	dec.Init(&fmtIn)

	closes := 0
	name := registerGatedVideoDecoder(t, dec, 10, func(d *Decoder) error {
		d.Decode = func(*Decoder, []byte) error { return nil }
		d.SetModuleClose(func(*Decoder) { closes++ })
		return nil
	})
	require.NoError(t, dec.Load(name))

	dec.Destroy()
	assert.Equal(t, 1, closes)
}

func TestUpdateVideoOutputRequiresVideoDecoder(t *testing.T) {
	fmtIn := format.New(format.CategoryAudio, format.CodecOpus)

	var dec Decoder
	dec.Init(&fmtIn)
	dec.Cbs = &DecoderCallbacks{
		VideoFormatUpdate: func(*Decoder, *VideoContext) error {
			t.Error("hook must not run for a non-video decoder")
			return nil
		},
	}

	assert.ErrorIs(t, dec.UpdateVideoOutput(nil), ErrDecoderNotVideo)
}

func TestUpdateVideoOutputRequiresCallbacks(t *testing.T) {
	fmtIn := videoInputFormat()

	var dec Decoder
	dec.Init(&fmtIn)

	assert.ErrorIs(t, dec.UpdateVideoOutput(nil), ErrCallbacksNotSet)
}

func TestUpdateVideoOutputRequiresHook(t *testing.T) {
	fmtIn := videoInputFormat()

	var dec Decoder
	dec.Init(&fmtIn)
	dec.Cbs = &DecoderCallbacks{}

	assert.ErrorIs(t, dec.UpdateVideoOutput(nil), ErrFormatUpdateNotSet)
}

func TestUpdateVideoOutputInvokesHook(t *testing.T) {
	fmtIn := videoInputFormat()

	var dec Decoder
	dec.Init(&fmtIn)

	vctx, err := NewVideoContext(nil, VideoContextMemory, 0, nil)
	require.NoError(t, err)
	defer vctx.Release()

	var gotDec *Decoder
	var gotVctx *VideoContext
	dec.Cbs = &DecoderCallbacks{
		VideoFormatUpdate: func(d *Decoder, v *VideoContext) error {
			gotDec, gotVctx = d, v
			return nil
		},
	}

	require.NoError(t, dec.UpdateVideoOutput(vctx))
	assert.Same(t, &dec, gotDec)
	assert.Same(t, vctx, gotVctx)
}

func TestUpdateVideoOutputPropagatesHookError(t *testing.T) {
	fmtIn := videoInputFormat()

	var dec Decoder
	dec.Init(&fmtIn)

	hookErr := fmt.Errorf("output reconfiguration refused")
	dec.Cbs = &DecoderCallbacks{
		VideoFormatUpdate: func(*Decoder, *VideoContext) error { return hookErr },
	}

	assert.ErrorIs(t, dec.UpdateVideoOutput(nil), hookErr)
}

func TestUpdateVideoFormatPassesNoContext(t *testing.T) {
	fmtIn := videoInputFormat()

	var dec Decoder
	dec.Init(&fmtIn)

	called := false
	dec.Cbs = &DecoderCallbacks{
		VideoFormatUpdate: func(_ *Decoder, v *VideoContext) error {
			called = true
			assert.Nil(t, v)
			return nil
		},
	}

	require.NoError(t, dec.UpdateVideoFormat())
	assert.True(t, called)
}

func TestNewPictureFallbackAllocation(t *testing.T) {
	fmtIn := videoInputFormat()

	var dec Decoder
	dec.Init(&fmtIn)
	dec.Cbs = &DecoderCallbacks{}
	dec.FmtOut.Video = format.VideoFormat{Width: 64, Height: 48, Chroma: format.ChromaI420}

	pic, err := dec.NewPicture()
	require.NoError(t, err)
	defer pic.Release()

	assert.Equal(t, 64, pic.Width)
	assert.Equal(t, 48, pic.Height)
	assert.Len(t, pic.Planes, 3)
}

func TestNewPictureCustomAllocator(t *testing.T) {
	fmtIn := videoInputFormat()

	var dec Decoder
	dec.Init(&fmtIn)

	custom, err := picture.NewFromFormat(&format.VideoFormat{Width: 16, Height: 16})
	require.NoError(t, err)
	defer custom.Release()

	dec.Cbs = &DecoderCallbacks{
		VideoBufferNew: func(*Decoder) (*picture.Picture, error) { return custom, nil },
	}

	pic, err := dec.NewPicture()
	require.NoError(t, err)
	assert.Same(t, custom, pic)
}

func TestNewPictureRequiresVideoDecoder(t *testing.T) {
	fmtIn := format.New(format.CategoryAudio, format.CodecMP3)

	var dec Decoder
	dec.Init(&fmtIn)
	dec.Cbs = &DecoderCallbacks{}

	pic, err := dec.NewPicture()
	assert.Nil(t, pic)
	assert.ErrorIs(t, err, ErrDecoderNotVideo)
}

func TestAbortPicturesForwardsFlag(t *testing.T) {
	fmtIn := videoInputFormat()

	var dec Decoder
	dec.Init(&fmtIn)

	var got []bool
	dec.Cbs = &DecoderCallbacks{
		AbortPictures: func(_ *Decoder, abort bool) { got = append(got, abort) },
	}

	require.NoError(t, dec.AbortPictures(true))
	require.NoError(t, dec.AbortPictures(false))
	assert.Equal(t, []bool{true, false}, got)
}

func TestAbortPicturesWithoutHookIsNoOp(t *testing.T) {
	fmtIn := videoInputFormat()

	var dec Decoder
	dec.Init(&fmtIn)
	dec.Cbs = &DecoderCallbacks{}

	assert.NoError(t, dec.AbortPictures(true))
}

func TestDecoderAudioLifecycle(t *testing.T) {
	fmtIn := format.New(format.CategoryAudio, format.CodecOpus)
	fmtIn.Audio.SampleRate = 48000
	fmtIn.Audio.Channels = 2

	var dec Decoder
	dec.Init(&fmtIn)

	var queued [][]byte
	dec.Cbs = &DecoderCallbacks{
		QueueAudio: func(_ *Decoder, pcm []byte) error {
			queued = append(queued, pcm)
			return nil
		},
	}

	name := registerGatedAudioDecoder(t, &dec, 10, func(d *Decoder) error {
		if d.FmtIn.Codec != format.CodecOpus {
			return errDecline
		}
		d.FmtOut.Codec = format.CodecS16L
		d.FmtOut.Audio = d.FmtIn.Audio
		d.Decode = func(d *Decoder, data []byte) error {
			return d.Cbs.QueueAudio(d, append([]byte(nil), data...))
		}
		d.Flush = func(*Decoder) {}
		return nil
	})
	require.NoError(t, dec.Load(name))

	require.NoError(t, dec.Decode(&dec, []byte{10, 20}))
	require.NoError(t, dec.Decode(&dec, []byte{30}))
	assert.Equal(t, [][]byte{{10, 20}, {30}}, queued)
	assert.Equal(t, format.CodecS16L, dec.FmtOut.Codec)

	dec.Clean()
	assert.Nil(t, dec.Decode)
}
