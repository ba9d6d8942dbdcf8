package network

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	body := []byte(`{"verb":"drawCard"}`)
	raw, err := Encode(MsgTypeCommand, body)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xC9, 0x00, byte(len(body))}, raw[:4])

	p, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, uint16(MsgTypeCommand), p.MsgID)
	assert.Equal(t, body, p.Data)
}

func TestEncode_TooLarge(t *testing.T) {
	_, err := Encode(MsgTypeGameSync, bytes.Repeat([]byte{'x'}, MaxPayloadSize+1))
	assert.ErrorIs(t, err, ErrPacketTooLarge)

	_, err = Encode(MsgTypeGameSync, bytes.Repeat([]byte{'x'}, MaxPayloadSize))
	assert.NoError(t, err)
}

func TestDecode_Short(t *testing.T) {
	_, err := Decode([]byte{0, 1, 0})
	assert.ErrorIs(t, err, io.ErrShortBuffer)

	_, err = Decode([]byte{0, 1, 0, 5, 'a'})
	assert.ErrorIs(t, err, io.ErrShortBuffer)
}
