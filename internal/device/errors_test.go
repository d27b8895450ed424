package device

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConnectionErrorIs(t *testing.T) {
	wrapped := fmt.Errorf("send heartbeat: %w", &ConnectionError{State: ChannelClosed, Msg: "link dropped"})

	assert.ErrorIs(t, wrapped, ErrChannelClosed, "MUST match by state")
	assert.NotErrorIs(t, wrapped, ErrNotConnected, "MUST NOT match a different state")
	assert.True(t, IsConnectionState(wrapped, ChannelClosed))
	assert.False(t, IsConnectionState(errors.New("other"), ChannelClosed))
	assert.Equal(t, "connection_closed: link dropped", errors.Unwrap(wrapped).Error())
}

func TestResponseTimeoutError(t *testing.T) {
	err := error(&ResponseTimeoutError{Command: "Connect", Expected: []string{"Connect", "NotSupported"}, Timeout: 100 * time.Millisecond})

	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "timeout waiting for response to Connect after 100ms (expected: Connect, NotSupported)", err.Error())

	var rte *ResponseTimeoutError
	assert.ErrorAs(t, fmt.Errorf("wrapped: %w", err), &rte)
	assert.Equal(t, []string{"Connect", "NotSupported"}, rte.Expected)

	wildcard := &ResponseTimeoutError{Command: "Heartbeat", Timeout: time.Second}
	assert.Contains(t, wildcard.Error(), "expected: any")
}

func TestNotFoundError(t *testing.T) {
	assert.Equal(t, "endpoint not found", (&NotFoundError{Resource: "endpoint"}).Error())
	assert.Equal(t, `service "ae30" not found`, (&NotFoundError{Resource: "service", UUIDs: []string{"ae30"}}).Error())
	assert.Equal(t, `characteristic "ae01" not found in service "ae30"`,
		(&NotFoundError{Resource: "characteristic", UUIDs: []string{"ae30", "ae01"}}).Error())
}

func TestNamePrefixFilter(t *testing.T) {
	f := NamePrefixFilter(DefaultNamePrefixes...)

	assert.True(t, f("B1-H123456789"))
	assert.True(t, f("D110-G240123"))
	assert.False(t, f("MX Keys"))
	assert.False(t, f(""), "empty names MUST be rejected")

	assert.False(t, NamePrefixFilter("", " ")("B1"), "filter without usable prefixes MUST reject everything")
	assert.True(t, NamePrefixFilter(" B ")("B21"), "prefixes MUST be trimmed")
}
