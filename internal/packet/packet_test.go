package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacketAccepts(t *testing.T) {
	tests := []struct {
		name     string
		pkt      *Packet
		inbound  ResponseCommandID
		expected bool
	}{
		{
			name:     "empty set accepts any id",
			pkt:      New(CmdHeartbeat, nil),
			inbound:  ResponseCommandID(0x77),
			expected: true,
		},
		{
			name:     "member id accepted",
			pkt:      New(CmdConnect, []byte{1}, ExpectResponses(RespConnect)),
			inbound:  RespConnect,
			expected: true,
		},
		{
			name:     "non-member id rejected",
			pkt:      New(CmdConnect, []byte{1}, ExpectResponses(RespConnect)),
			inbound:  RespHeartbeatBasic,
			expected: false,
		},
		{
			name:     "any of several ids accepted",
			pkt:      New(CmdHeartbeat, nil, ExpectResponses(RespHeartbeatAdvanced, RespHeartbeatBasic)),
			inbound:  RespHeartbeatBasic,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.pkt.Accepts(tt.inbound))
		})
	}
}

func TestPacketImmutability(t *testing.T) {
	payload := []byte{1, 2, 3}
	p := New(CmdSetDensity, payload, ExpectResponses(RespSetDensity))

	payload[0] = 9
	assert.Equal(t, []byte{1, 2, 3}, p.Payload(), "payload MUST be copied on construction")

	got := p.Payload()
	got[1] = 9
	assert.Equal(t, []byte{1, 2, 3}, p.Payload(), "Payload() MUST return a copy")

	ids := p.ValidResponseIDs()
	ids[0] = RespNotSupported
	assert.Equal(t, []ResponseCommandID{RespSetDensity}, p.ValidResponseIDs(), "ValidResponseIDs() MUST return a copy")
}

func TestExpectResponsesDeduplicates(t *testing.T) {
	p := New(CmdConnect, nil, ExpectResponses(RespConnect, RespConnect), ExpectResponses(RespConnect))
	assert.Equal(t, []ResponseCommandID{RespConnect}, p.ValidResponseIDs())
}

func TestInvalidSentinel(t *testing.T) {
	p := Invalid()
	assert.True(t, p.IsInvalid())
	assert.True(t, p.OneWay())
	assert.Equal(t, CmdInvalid, p.Command())
	assert.False(t, New(CmdHeartbeat, nil).IsInvalid())
}

func TestResponseIDNames(t *testing.T) {
	assert.Equal(t, "Connect", RespConnect.String())
	assert.Equal(t, "PrinterInfo(11)", InfoResponseID(InfoSerialNumber).String())
	assert.Equal(t, "0x77", ResponseCommandID(0x77).String())
	assert.Equal(t, "Heartbeat", CmdHeartbeat.String())
	assert.Equal(t, "0x99", RequestCommandID(0x99).String())
}

func TestIsKnownResponse(t *testing.T) {
	assert.True(t, IsKnownResponse(RespConnect))
	assert.True(t, IsKnownResponse(RespNotSupported))
	assert.True(t, IsKnownResponse(InfoResponseID(InfoDensity)))
	assert.True(t, IsKnownResponse(InfoResponseID(InfoArea)))
	assert.False(t, IsKnownResponse(RespInvalid))
	assert.False(t, IsKnownResponse(ResponseCommandID(0x77)))
}

func TestInfoResponseID(t *testing.T) {
	id := InfoResponseID(InfoSoftwareVersion)
	require.Equal(t, ResponseCommandID(0x49), id)

	key, ok := id.PrinterInfoType()
	assert.True(t, ok)
	assert.Equal(t, InfoSoftwareVersion, key)

	_, ok = RespConnect.PrinterInfoType()
	assert.False(t, ok)
}

func TestParseCommandIDs(t *testing.T) {
	cmd, err := ParseRequestCommandID("heartbeat")
	require.NoError(t, err)
	assert.Equal(t, CmdHeartbeat, cmd)

	cmd, err = ParseRequestCommandID("0xa5")
	require.NoError(t, err)
	assert.Equal(t, CmdPrinterStatusData, cmd)

	_, err = ParseRequestCommandID("invalid")
	assert.Error(t, err, "the sentinel name MUST NOT parse")
	_, err = ParseRequestCommandID("0x1ff")
	assert.Error(t, err)

	resp, err := ParseResponseCommandID("HeartbeatBasic")
	require.NoError(t, err)
	assert.Equal(t, RespHeartbeatBasic, resp)

	resp, err = ParseResponseCommandID("0x4b")
	require.NoError(t, err)
	assert.Equal(t, InfoResponseID(InfoSerialNumber), resp)

	_, err = ParseResponseCommandID("nope")
	assert.Error(t, err)
}
