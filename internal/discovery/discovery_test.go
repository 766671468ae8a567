package discovery

import (
	"net"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestHostPort(t *testing.T) {
	hostPort, ok := HostPort([]net.IP{net.ParseIP("192.168.1.20")}, 5004)
	assert.Equal(t, ok, true)
	assert.Equal(t, hostPort, "192.168.1.20:5004")

	_, ok = HostPort(nil, 5004)
	assert.Equal(t, ok, false)
	_, ok = HostPort([]net.IP{net.ParseIP("10.0.0.1")}, 0)
	assert.Equal(t, ok, false)
}
