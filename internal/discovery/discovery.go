package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/golang/glog"
	"github.com/grandcat/zeroconf"
)

const (
	ServiceName = "_echotree._tcp"
	Domain      = "local."
)

var ErrNotFound = errors.New("no experiment server found")

// Register announces an experiment server on the local network until ctx is done.
func Register(ctx context.Context, port int) error {
	host, _ := os.Hostname()
	server, err := zeroconf.Register(
		fmt.Sprintf("%s-%s", "EchoTree", host),
		ServiceName,
		Domain,
		port,
		[]string{"txtv=0", "version=2"},
		nil,
	)
	if err != nil {
		return err
	}
	glog.Infof("[discovery]registered %s on port %d\n", ServiceName, port)
	go func() {
		<-ctx.Done()
		server.Shutdown()
	}()
	return nil
}

// Browse returns the host:port of the first experiment server that answers within timeout.
func Browse(ctx context.Context, timeout time.Duration) (string, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return "", err
	}

	browseCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	if err := resolver.Browse(browseCtx, ServiceName, Domain, entries); err != nil {
		return "", err
	}
	for {
		select {
		case <-browseCtx.Done():
			return "", ErrNotFound
		case entry, ok := <-entries:
			if !ok {
				return "", ErrNotFound
			}
			if hostPort, ok := HostPort(entry.AddrIPv4, entry.Port); ok {
				glog.Infof("[discovery]found %s at %s\n", entry.Instance, hostPort)
				return hostPort, nil
			}
		}
	}
}

// HostPort picks the first address of an entry.
func HostPort(addrs []net.IP, port int) (string, bool) {
	if len(addrs) == 0 || port <= 0 {
		return "", false
	}
	return net.JoinHostPort(addrs[0].String(), strconv.Itoa(port)), true
}
