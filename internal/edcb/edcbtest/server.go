// Package edcbtest provides a fake EpgTimerSrv that answers CtrlCmd file copy
// requests from an in-memory file set.
package edcbtest

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf16"
)

const (
	cmdFileCopy2 = 2060
	cmdSuccess   = 1
	cmdVersion   = 5
)

// Option configures a Server.
type Option func(*Server)

// WithDelay makes the server wait before answering each request.
func WithDelay(d time.Duration) Option {
	return func(s *Server) { s.delay = d }
}

// WithReturnCode makes the server answer every request with code instead of success.
func WithReturnCode(code uint32) Option {
	return func(s *Server) { s.ret = code }
}

// WithRawResponse makes the server answer every request with body verbatim.
func WithRawResponse(body []byte) Option {
	return func(s *Server) { s.raw = body }
}

// Server is a fake EpgTimerSrv listening on a loopback TCP port.
// Files are keyed by their CtrlCmd path, e.g. `LogoData\7FE0_000_001_05.png`.
// A request for `<dir>\*.*` returns a listing of the files under dir.
type Server struct {
	files    map[string][]byte
	delay    time.Duration
	ret      uint32
	raw      []byte
	listener net.Listener

	mu       sync.Mutex
	requests [][]string
}

// NewServer starts a fake server. It is closed when the test finishes.
func NewServer(t testing.TB, files map[string][]byte, opts ...Option) *Server {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	s := &Server{files: files, ret: cmdSuccess, listener: ln}
	for _, opt := range opts {
		opt(s)
	}

	go s.serve()
	t.Cleanup(func() { _ = ln.Close() })
	return s
}

// Addr returns the host:port the server listens on.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// URL returns the endpoint URL of the server.
func (s *Server) URL() string {
	return "tcp://" + s.Addr() + "/"
}

// Requests returns the file names of every file copy request received so far.
func (s *Server) Requests() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.requests...)
}

func (s *Server) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	var header [8]byte
	if _, err := io.ReadFull(conn, header[:]); err != nil {
		return
	}
	cmd := binary.LittleEndian.Uint32(header[0:])
	body := make([]byte, binary.LittleEndian.Uint32(header[4:]))
	if _, err := io.ReadFull(conn, body); err != nil {
		return
	}

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	if s.raw != nil {
		_, _ = conn.Write(s.raw)
		return
	}

	if s.ret != cmdSuccess {
		_, _ = conn.Write(frame(s.ret, nil))
		return
	}
	if cmd != cmdFileCopy2 {
		_, _ = conn.Write(frame(0, nil))
		return
	}

	names, err := readRequest(body)
	if err != nil {
		_, _ = conn.Write(frame(0, nil))
		return
	}
	s.mu.Lock()
	s.requests = append(s.requests, names)
	s.mu.Unlock()

	var payload []byte
	payload = binary.LittleEndian.AppendUint16(payload, cmdVersion)
	var items [][]byte
	for _, name := range names {
		data, ok := s.lookup(name)
		if !ok {
			continue
		}
		items = append(items, fileData(name, data))
	}
	payload = append(payload, vector(items)...)
	_, _ = conn.Write(frame(cmdSuccess, payload))
}

func (s *Server) lookup(name string) ([]byte, bool) {
	if dir, ok := strings.CutSuffix(name, `\*.*`); ok {
		return []byte(s.listing(dir + `\`)), true
	}
	data, ok := s.files[name]
	return data, ok
}

func (s *Server) listing(prefix string) string {
	var names []string
	for name := range s.files {
		if rest, ok := strings.CutPrefix(name, prefix); ok && !strings.Contains(rest, `\`) {
			names = append(names, rest)
		}
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "133420032000000000 %d 32 %s\r\n", len(s.files[prefix+name]), name)
	}
	return b.String()
}

func frame(ret uint32, payload []byte) []byte {
	out := make([]byte, 8, 8+len(payload))
	binary.LittleEndian.PutUint32(out[0:], ret)
	binary.LittleEndian.PutUint32(out[4:], uint32(len(payload)))
	return append(out, payload...)
}

func str(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := binary.LittleEndian.AppendUint32(nil, uint32(4+2*len(units)+2))
	for _, u := range units {
		out = binary.LittleEndian.AppendUint16(out, u)
	}
	return binary.LittleEndian.AppendUint16(out, 0)
}

func vector(items [][]byte) []byte {
	size := 8
	for _, it := range items {
		size += len(it)
	}
	out := binary.LittleEndian.AppendUint32(nil, uint32(size))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(items)))
	for _, it := range items {
		out = append(out, it...)
	}
	return out
}

func fileData(name string, data []byte) []byte {
	nameBytes := str(name)
	size := 4 + len(nameBytes) + 4 + 4 + len(data)
	out := binary.LittleEndian.AppendUint32(nil, uint32(size))
	out = append(out, nameBytes...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(data)))
	out = binary.LittleEndian.AppendUint32(out, 0)
	return append(out, data...)
}

func readRequest(body []byte) ([]string, error) {
	if len(body) < 10 {
		return nil, fmt.Errorf("short request")
	}
	pos := 2 // version
	vecEnd := pos + int(binary.LittleEndian.Uint32(body[pos:]))
	if vecEnd > len(body) {
		return nil, fmt.Errorf("bad vector size")
	}
	count := int(binary.LittleEndian.Uint32(body[pos+4:]))
	pos += 8

	names := make([]string, 0, count)
	for i := 0; i < count; i++ {
		if vecEnd-pos < 4 {
			return nil, fmt.Errorf("short string")
		}
		end := pos + int(binary.LittleEndian.Uint32(body[pos:]))
		if end > vecEnd || end < pos+6 {
			return nil, fmt.Errorf("bad string size")
		}
		var units []uint16
		for p := pos + 4; p < end-2; p += 2 {
			units = append(units, binary.LittleEndian.Uint16(body[p:]))
		}
		names = append(names, string(utf16.Decode(units)))
		pos = end
	}
	return names, nil
}
