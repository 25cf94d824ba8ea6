// Package edcb implements the subset of the EDCB CtrlCmd protocol needed to
// read files from EpgTimerSrv, and parsers for its LogoData cache index.
package edcb

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"time"
)

var (
	// ErrProtocol is returned when a response does not follow the CtrlCmd framing.
	ErrProtocol = errors.New("edcb: malformed ctrlcmd response")
	// ErrCommandFailed is returned when EpgTimerSrv answers with a non-success code.
	ErrCommandFailed = errors.New("edcb: command failed")
	// ErrInvalidEndpoint is returned by ParseEndpoint for unusable URLs.
	ErrInvalidEndpoint = errors.New("edcb: invalid endpoint")
)

const (
	cmdSuccess   = 1
	cmdVersion   = 5
	cmdFileCopy2 = 2060

	// DefaultPort is the TCP port EpgTimerSrv listens on when network control is enabled.
	DefaultPort = 4510

	maxResponseSize = 64 << 20
)

// FileData is one file returned by a file copy request.
type FileData struct {
	Name string
	Data []byte
}

// Client talks to EpgTimerSrv over TCP. A new connection is opened per command,
// which is how the server expects to be used.
type Client struct {
	addr    string
	timeout time.Duration
	dialer  net.Dialer
}

// NewClient creates a client for addr ("host:port"). timeout bounds the whole
// round trip of each command, connection setup included.
func NewClient(addr string, timeout time.Duration) *Client {
	return &Client{
		addr:    addr,
		timeout: timeout,
		dialer:  net.Dialer{Timeout: timeout},
	}
}

// ParseEndpoint converts an endpoint URL such as "tcp://192.168.1.10:4510/"
// into a dialable address. The port defaults to DefaultPort.
func ParseEndpoint(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	if u.Scheme != "tcp" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidEndpoint, u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("%w: missing host in %q", ErrInvalidEndpoint, rawURL)
	}
	port := u.Port()
	if port == "" {
		port = strconv.Itoa(DefaultPort)
	}
	return net.JoinHostPort(host, port), nil
}

// Addr returns the address the client dials.
func (c *Client) Addr() string {
	return c.addr
}

// SendFileCopy2 asks EpgTimerSrv for the named files. A name may contain a
// wildcard, in which case the returned blob is a text listing of the matching
// files. Results are returned in request order.
func (c *Client) SendFileCopy2(ctx context.Context, names []string) ([]FileData, error) {
	var enc encoder
	enc.writeUint16(cmdVersion)
	enc.writeStringVector(names)

	ret, payload, err := c.sendAndReceive(ctx, cmdFileCopy2, enc.buf)
	if err != nil {
		return nil, err
	}
	if ret != cmdSuccess {
		return nil, fmt.Errorf("%w: file copy returned %d", ErrCommandFailed, ret)
	}

	dec := decoder{buf: payload}
	ver, err := dec.readUint16(len(payload))
	if err != nil {
		return nil, err
	}
	if ver < cmdVersion {
		return nil, fmt.Errorf("%w: server version %d is too old", ErrProtocol, ver)
	}
	return dec.readFileDataVector(len(payload))
}

// Ping checks that the server accepts connections.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return fmt.Errorf("failed to connect to edcb: %w", err)
	}
	return conn.Close()
}

func (c *Client) sendAndReceive(ctx context.Context, cmd uint32, payload []byte) (uint32, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to connect to edcb: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return 0, nil, err
		}
	}

	frame := make([]byte, 8, 8+len(payload))
	binary.LittleEndian.PutUint32(frame[0:], cmd)
	binary.LittleEndian.PutUint32(frame[4:], uint32(len(payload)))
	frame = append(frame, payload...)
	if _, err := conn.Write(frame); err != nil {
		return 0, nil, fmt.Errorf("failed to send command %d: %w", cmd, err)
	}

	var header [8]byte
	if _, err := io.ReadFull(conn, header[:]); err != nil {
		return 0, nil, fmt.Errorf("failed to read response header: %w", err)
	}
	ret := binary.LittleEndian.Uint32(header[0:])
	size := binary.LittleEndian.Uint32(header[4:])
	if size > maxResponseSize {
		return 0, nil, fmt.Errorf("%w: response size %d exceeds limit", ErrProtocol, size)
	}

	body, err := io.ReadAll(io.LimitReader(conn, int64(size)))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) != int(size) {
		return 0, nil, fmt.Errorf("%w: response body truncated at %d of %d bytes", ErrProtocol, len(body), size)
	}
	return ret, body, nil
}
