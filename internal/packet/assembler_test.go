package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frame(t *testing.T, id ResponseCommandID, payload ...byte) []byte {
	t.Helper()
	data, err := NewFrameCodec().Encode(NewResponse(id, payload))
	require.NoError(t, err)
	return data
}

func TestAssembler(t *testing.T) {
	t.Run("split frame is joined", func(t *testing.T) {
		a := NewAssembler(DefaultAssemblyCapacity)
		data := frame(t, RespPrinterStatusData, 0x01, 0x02, 0x03)

		packets, err := a.Feed(data[:5])
		require.NoError(t, err)
		assert.Empty(t, packets, "incomplete frame MUST be held back")
		assert.Equal(t, 5, a.Buffered())

		packets, err = a.Feed(data[5:])
		require.NoError(t, err)
		require.Len(t, packets, 1)
		assert.Equal(t, RespPrinterStatusData, packets[0].ResponseID())
		assert.Equal(t, []byte{0x01, 0x02, 0x03}, packets[0].Payload())
		assert.Zero(t, a.Buffered())
	})

	t.Run("coalesced frames and a partial tail", func(t *testing.T) {
		a := NewAssembler(DefaultAssemblyCapacity)
		first := frame(t, RespHeartbeatBasic, 0x00)
		second := frame(t, RespPrintStatus, 0x01, 0x00)
		third := frame(t, RespPrinterPageIndex, 0x02)

		buf := append(append(append([]byte(nil), first...), second...), third[:3]...)
		packets, err := a.Feed(buf)
		require.NoError(t, err)
		require.Len(t, packets, 2)
		assert.Equal(t, RespHeartbeatBasic, packets[0].ResponseID())
		assert.Equal(t, RespPrintStatus, packets[1].ResponseID())

		packets, err = a.Feed(third[3:])
		require.NoError(t, err)
		require.Len(t, packets, 1)
		assert.Equal(t, RespPrinterPageIndex, packets[0].ResponseID())
	})

	t.Run("garbage is discarded and reported", func(t *testing.T) {
		a := NewAssembler(DefaultAssemblyCapacity)

		packets, err := a.Feed([]byte{0x01, 0x02, 0x03})
		assert.ErrorIs(t, err, ErrBadHeader)
		assert.Empty(t, packets)
		assert.Zero(t, a.Buffered())
	})

	t.Run("resyncs after leading noise", func(t *testing.T) {
		a := NewAssembler(DefaultAssemblyCapacity)
		data := append([]byte{0x00, 0x13}, frame(t, RespConnect, 0x03)...)

		packets, err := a.Feed(data)
		assert.ErrorIs(t, err, ErrBadHeader, "skipped bytes MUST be reported")
		require.Len(t, packets, 1, "frame after noise MUST still decode")
		assert.Equal(t, RespConnect, packets[0].ResponseID())
	})

	t.Run("bad checksum skips the frame", func(t *testing.T) {
		a := NewAssembler(DefaultAssemblyCapacity)
		bad := frame(t, RespConnect, 0x03)
		bad[5] ^= 0xff
		good := frame(t, RespHeartbeatBasic, 0x00)

		packets, err := a.Feed(append(bad, good...))
		assert.ErrorIs(t, err, ErrBadChecksum)
		require.Len(t, packets, 1)
		assert.Equal(t, RespHeartbeatBasic, packets[0].ResponseID())
	})

	t.Run("trailing head byte is kept", func(t *testing.T) {
		a := NewAssembler(DefaultAssemblyCapacity)
		data := frame(t, RespHeartbeatBasic, 0x00)

		_, err := a.Feed(data[:1])
		require.NoError(t, err)
		assert.Equal(t, 1, a.Buffered())

		packets, err := a.Feed(data[1:])
		require.NoError(t, err)
		assert.Len(t, packets, 1)
	})

	t.Run("overflow resets the buffer", func(t *testing.T) {
		a := NewAssembler(0)
		head := []byte{0x55, 0x55, 0xb5, 0xff}

		_, err := a.Feed(head)
		require.NoError(t, err)

		_, err = a.Feed(make([]byte, MaxPayloadLen+frameOverhead))
		assert.ErrorIs(t, err, ErrAssemblyOverflow)
		assert.Zero(t, a.Buffered(), "overflow MUST drop buffered bytes")
	})
}
