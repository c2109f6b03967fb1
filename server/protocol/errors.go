package protocol

import (
	jerrors "github.com/juju/errors"
)

// Protocol errors. Parse-site variants carry where the handshake decode
// failed; the connection layer matches on jerrors.Cause.
var (
	ErrInvalidSequence      = jerrors.New("invalid sequence")
	ErrMultiPacketNotSupport = jerrors.New("multi packet not supported in handshake phase")
	ErrEmptyPacket          = jerrors.New("empty packet")
	ErrProtocolNotSupport   = jerrors.New("only protocol 4.1 is supported")

	// HandshakeResponse41 parse sites.
	ErrReadClientFlag         = jerrors.New("read client flags failed")
	ErrReadMaxPacketSize      = jerrors.New("read max packet size failed")
	ErrReadCharset            = jerrors.New("read charset failed")
	ErrReadZero               = jerrors.New("read reserved zero bytes failed")
	ErrReadUser               = jerrors.New("read user failed")
	ErrReadAuthResponse       = jerrors.New("read auth response failed")
	ErrReadAuthResponseLength = jerrors.New("read auth response length failed")
	ErrReadDatabase           = jerrors.New("read database failed")
	ErrReadPlugin             = jerrors.New("read auth plugin name failed")

	// HandshakeV10 parse sites.
	ErrReadProtocolVersion = jerrors.New("read protocol version failed")
	ErrReadServerVersion   = jerrors.New("read server version failed")
	ErrReadConnectionID    = jerrors.New("read connection id failed")
	ErrReadSalt            = jerrors.New("read salt failed")
	ErrReadCapabilityFlag  = jerrors.New("read capability flags failed")
	ErrReadStatusFlag      = jerrors.New("read status flags failed")
	ErrReadAuthPluginLen   = jerrors.New("read auth plugin data length failed")

	// ErrComQuit is not a failure: the client asked for a clean disconnect.
	ErrComQuit = jerrors.New("com quit")
)
