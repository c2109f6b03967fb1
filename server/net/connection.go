package net

import (
	"io"

	log "github.com/AlexStocks/log4go"
	jerrors "github.com/juju/errors"

	"github.com/zhukovaskychina/xmysql-proto/logger"
	"github.com/zhukovaskychina/xmysql-proto/server"
	"github.com/zhukovaskychina/xmysql-proto/server/auth"
	"github.com/zhukovaskychina/xmysql-proto/server/common"
	"github.com/zhukovaskychina/xmysql-proto/server/dispatcher"
	"github.com/zhukovaskychina/xmysql-proto/server/protocol"
)

// Connection owns one client end-to-end: greeting, authentication and the
// command loop, all over blocking I/O on its worker.
type Connection struct {
	id       uint32
	user     string
	greeting *protocol.Greeting
	auth     *protocol.AuthPacket
	packets  *protocol.Packets

	// capability is the effective set for this client: the server default
	// intersected with what the client offered. COM_SET_OPTION may toggle
	// MULTI_STATEMENTS afterwards.
	capability  uint32
	statusFlags uint16

	handler   server.Handler
	validator *auth.Validator
}

func NewConnection(id uint32, serverVersion string, handler server.Handler, validator *auth.Validator) *Connection {
	return &Connection{
		id:          id,
		greeting:    protocol.NewGreeting(id, serverVersion),
		auth:        protocol.NewAuthPacket(),
		statusFlags: common.SERVER_STATUS_AUTOCOMMIT,
		handler:     handler,
		validator:   validator,
	}
}

// Handle runs the connection to completion. The returned error is nil for
// a clean COM_QUIT disconnect.
func (c *Connection) Handle(stream io.ReadWriter) error {
	c.packets = protocol.NewPackets(stream)

	if err := c.handshake(); err != nil {
		return err
	}

	c.handler.NewConnection(c.id)
	defer c.handler.CloseConnection(c.id)

	for {
		capability, err := dispatcher.HandleNextCommand(c.packets, c.handler, c.statusFlags, c.capability)
		c.capability = capability
		if err == nil {
			continue
		}
		if jerrors.Cause(err) == protocol.ErrComQuit {
			log.Debug("connection %d: client quit", c.id)
			return nil
		}
		log.Debug("connection %d: command loop ends: %v", c.id, err)
		return err
	}
}

// handshake runs the connection phase: greeting out at sequence 0, the
// client response in at sequence 1, OK or ERR out at sequence 2.
func (c *Connection) handshake() error {
	if err := c.packets.WritePacket(c.greeting.WriteHandshakeV10(false)); err != nil {
		return jerrors.Annotate(err, "write greeting")
	}
	// A TLS upgrade would be negotiated here, between the greeting and the
	// response read; TLS is terminated upstream instead.
	payload, err := c.packets.ReadEphemeralPacketDirect()
	if err != nil {
		return jerrors.Annotate(err, "read handshake response")
	}
	if err := c.auth.ParseClientHandshake(payload, false); err != nil {
		logger.Errorf("connection %d: bad handshake response: %v", c.id, err)
		_ = c.packets.WriteErrPacket(common.ERAccessDeniedError,
			common.SSAccessDeniedError, "Malformed handshake response")
		return err
	}
	c.user = c.auth.User
	c.capability = common.DEFAULT_SERVER_CAPABILITY & c.auth.CapabilityFlags
	c.packets.SetCapability(c.capability)
	c.packets.SetStatusFlags(c.statusFlags)
	if c.auth.Attrs != nil {
		logger.Debugf("connection %d: %d connection attributes, digest %016x",
			c.id, len(c.auth.Attrs), c.auth.AttrsDigest)
	}

	if err := c.validator.Verify(c.user, c.auth.AuthResponse, c.greeting.Salt); err != nil {
		logger.Warnf("connection %d: auth failed for %q: %v", c.id, c.user, err)
		_ = c.packets.WriteErrPacket(common.ERAccessDeniedError,
			common.SSAccessDeniedError,
			"Access denied for user '"+c.user+"'")
		return err
	}
	if err := c.packets.WriteOKPacket(0, 0, c.statusFlags, 0); err != nil {
		return jerrors.Annotate(err, "write auth ok")
	}
	log.Info("connection %d: user %q authenticated, capability 0x%08x",
		c.id, c.user, c.capability)
	return nil
}
