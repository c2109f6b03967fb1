package net

import (
	"compress/flate"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/AlexStocks/log4go"
	"github.com/golang/snappy"
	jerrors "github.com/juju/errors"
	"github.com/pierrec/lz4/v4"
)

// CompressType selects optional transport-level stream compression. This
// sits below the MySQL protocol layer and is unrelated to CLIENT_COMPRESS,
// which is not supported.
type CompressType int

const (
	CompressNone CompressType = iota
	CompressFlate
	CompressSnappy
	CompressLZ4
)

// ParseCompressType maps the config value onto a CompressType.
func ParseCompressType(name string) (CompressType, error) {
	switch name {
	case "", "none":
		return CompressNone, nil
	case "flate", "zip":
		return CompressFlate, nil
	case "snappy":
		return CompressSnappy, nil
	case "lz4":
		return CompressLZ4, nil
	default:
		return CompressNone, jerrors.Errorf("unknown compress encoding %q", name)
	}
}

// mysqlTCPConn wraps a TCP connection with read/write deadlines and
// optional compression. It is the io.ReadWriter the packet framer owns.
type mysqlTCPConn struct {
	id         uint32
	conn       net.Conn
	reader     io.Reader
	writer     io.Writer
	compress   CompressType
	readBytes  uint32
	writeBytes uint32

	rTimeout      time.Duration
	wTimeout      time.Duration
	rLastDeadline time.Time
	wLastDeadline time.Time

	local string
	peer  string
}

func newMysqlTCPConn(conn net.Conn, id uint32) *mysqlTCPConn {
	if conn == nil {
		panic("newMysqlTCPConn: @conn is nil")
	}
	var localAddr, peerAddr string
	if conn.LocalAddr() != nil {
		localAddr = conn.LocalAddr().String()
	}
	if conn.RemoteAddr() != nil {
		peerAddr = conn.RemoteAddr().String()
	}
	return &mysqlTCPConn{
		id:     id,
		conn:   conn,
		reader: io.Reader(conn),
		writer: io.Writer(conn),
		local:  localAddr,
		peer:   peerAddr,
	}
}

func (t *mysqlTCPConn) ID() uint32 { return t.id }

func (t *mysqlTCPConn) LocalAddr() string { return t.local }

func (t *mysqlTCPConn) RemoteAddr() string { return t.peer }

func (t *mysqlTCPConn) SetReadTimeout(rTimeout time.Duration) {
	t.rTimeout = rTimeout
}

func (t *mysqlTCPConn) SetWriteTimeout(wTimeout time.Duration) {
	t.wTimeout = wTimeout
}

// writeFlusher serializes write+flush for compressors that buffer.
type writeFlusher struct {
	flusher interface {
		io.Writer
		Flush() error
	}
	lock sync.Mutex
}

func (t *writeFlusher) Write(p []byte) (int, error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	n, err := t.flusher.Write(p)
	if err != nil {
		return n, jerrors.Trace(err)
	}
	if err := t.flusher.Flush(); err != nil {
		return 0, jerrors.Trace(err)
	}
	return n, nil
}

func (t *writeFlusher) Close() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if closer, ok := t.flusher.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SetCompressType layers a compressing reader/writer over the raw
// connection. Deadlines are not refreshed on compressed streams.
func (t *mysqlTCPConn) SetCompressType(c CompressType) {
	switch c {
	case CompressNone:
	case CompressFlate:
		t.reader = flate.NewReader(io.Reader(t.conn))
		w, err := flate.NewWriter(io.Writer(t.conn), flate.DefaultCompression)
		if err != nil {
			panic(fmt.Sprintf("flate.NewWriter() = error(%v)", err))
		}
		t.writer = &writeFlusher{flusher: w}
	case CompressSnappy:
		t.reader = snappy.NewReader(io.Reader(t.conn))
		t.writer = &writeFlusher{flusher: snappy.NewBufferedWriter(io.Writer(t.conn))}
	case CompressLZ4:
		t.reader = lz4.NewReader(io.Reader(t.conn))
		t.writer = &writeFlusher{flusher: lz4.NewWriter(io.Writer(t.conn))}
	default:
		panic(fmt.Sprintf("illegal compress type %d", c))
	}
	t.compress = c
}

func (t *mysqlTCPConn) Read(p []byte) (int, error) {
	if t.compress == CompressNone && t.rTimeout > 0 {
		// Refresh the deadline only when more than 25% of it elapsed.
		// See https://github.com/golang/go/issues/15133 for details.
		currentTime := time.Now()
		if currentTime.Sub(t.rLastDeadline) > t.rTimeout>>2 {
			if err := t.conn.SetReadDeadline(currentTime.Add(t.rTimeout)); err != nil {
				return 0, jerrors.Trace(err)
			}
			t.rLastDeadline = currentTime
		}
	}
	length, err := t.reader.Read(p)
	atomic.AddUint32(&t.readBytes, uint32(length))
	if err != nil {
		return length, jerrors.Trace(err)
	}
	return length, nil
}

func (t *mysqlTCPConn) Write(p []byte) (int, error) {
	if t.compress == CompressNone && t.wTimeout > 0 {
		currentTime := time.Now()
		if currentTime.Sub(t.wLastDeadline) > t.wTimeout>>2 {
			if err := t.conn.SetWriteDeadline(currentTime.Add(t.wTimeout)); err != nil {
				return 0, jerrors.Trace(err)
			}
			t.wLastDeadline = currentTime
		}
	}
	length, err := t.writer.Write(p)
	atomic.AddUint32(&t.writeBytes, uint32(length))
	if err != nil {
		return length, jerrors.Trace(err)
	}
	return length, nil
}

// Close flushes compressors and closes the socket, lingering up to waitSec.
func (t *mysqlTCPConn) Close(waitSec int) {
	if t.conn == nil {
		return
	}
	if closer, ok := t.writer.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			log.Error("close compressed writer on %s: %v", t.peer, err)
		}
	}
	if conn, ok := t.conn.(*net.TCPConn); ok {
		_ = conn.SetLinger(waitSec)
	}
	_ = t.conn.Close()
	t.conn = nil
}
