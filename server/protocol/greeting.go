package protocol

import (
	jerrors "github.com/juju/errors"

	"github.com/zhukovaskychina/xmysql-proto/server/common"
	"github.com/zhukovaskychina/xmysql-proto/util"
)

// Greeting is the server's initial Handshake v10 payload. It is created per
// connection and immutable once written.
type Greeting struct {
	StatusFlag     uint16
	Capability     uint32
	ConnectionID   uint32
	ServerVersion  string
	AuthPluginName string
	Salt           []byte
}

// NewGreeting draws a fresh 20-byte salt and advertises the default server
// capability.
func NewGreeting(connectionID uint32, serverVersion string) *Greeting {
	return &Greeting{
		StatusFlag:     common.SERVER_STATUS_AUTOCOMMIT,
		Capability:     common.DEFAULT_SERVER_CAPABILITY,
		ConnectionID:   connectionID,
		ServerVersion:  serverVersion,
		AuthPluginName: common.MYSQL_NATIVE_PASSWORD,
		Salt:           util.RandomSalt(20),
	}
}

// WriteHandshakeV10 produces the greeting payload (unframed).
// See https://dev.mysql.com/doc/internals/en/connection-phase-packets.html#packet-Protocol::HandshakeV10
func (g *Greeting) WriteHandshakeV10(enableTLS bool) []byte {
	if enableTLS {
		g.Capability |= common.CLIENT_SSL
	}
	buf := make([]byte, 0, 64+len(g.ServerVersion))
	buf = util.WriteByte(buf, common.PROTOCOL_VERSION)
	buf = util.WriteWithNull(buf, []byte(g.ServerVersion))
	buf = util.WriteUB4(buf, g.ConnectionID)
	// auth-plugin-data-part-1
	buf = util.WriteBytes(buf, g.Salt[:8])
	buf = util.WriteByte(buf, 0)
	// capability flags, lower 2 bytes
	buf = util.WriteUB2(buf, uint16(g.Capability))
	buf = util.WriteByte(buf, common.CHARACTER_SET_UTF8)
	buf = util.WriteUB2(buf, g.StatusFlag)
	// capability flags, upper 2 bytes
	buf = util.WriteUB2(buf, uint16(g.Capability>>16))
	// length of auth-plugin-data: 20 salt bytes + terminator
	buf = util.WriteByte(buf, 21)
	// reserved
	buf = util.WriteBytes(buf, make([]byte, 10))
	// auth-plugin-data-part-2
	buf = util.WriteBytes(buf, g.Salt[8:])
	buf = util.WriteByte(buf, 0)
	buf = util.WriteWithNull(buf, []byte(common.MYSQL_NATIVE_PASSWORD))
	return buf
}

// ParseHandshakeV10 is the symmetrical decoder; round-trip tests and
// diagnostics use it.
func (g *Greeting) ParseHandshakeV10(payload []byte) error {
	if len(payload) < 1 {
		return jerrors.Trace(ErrReadProtocolVersion)
	}
	cursor := 1 // protocol version, always 10

	cursor, version, ok := util.ReadStringWithNull(payload, cursor)
	if !ok {
		return jerrors.Trace(ErrReadServerVersion)
	}
	g.ServerVersion = version

	if len(payload) < cursor+4 {
		return jerrors.Trace(ErrReadConnectionID)
	}
	cursor, g.ConnectionID = util.ReadUB4(payload, cursor)

	if len(payload) < cursor+9 {
		return jerrors.Trace(ErrReadSalt)
	}
	cursor, salt1 := util.ReadBytes(payload, cursor, 8)
	cursor++ // filler

	if len(payload) < cursor+2 {
		return jerrors.Trace(ErrReadCapabilityFlag)
	}
	cursor, lowerCapability := util.ReadUB2(payload, cursor)

	if len(payload) < cursor+1 {
		return jerrors.Trace(ErrReadCharset)
	}
	cursor++ // charset

	if len(payload) < cursor+2 {
		return jerrors.Trace(ErrReadStatusFlag)
	}
	cursor, g.StatusFlag = util.ReadUB2(payload, cursor)

	if len(payload) < cursor+2 {
		return jerrors.Trace(ErrReadCapabilityFlag)
	}
	cursor, upperCapability := util.ReadUB2(payload, cursor)
	g.Capability = uint32(upperCapability)<<16 | uint32(lowerCapability)

	if len(payload) < cursor+1 {
		return jerrors.Trace(ErrReadAuthPluginLen)
	}
	var authPluginLen byte
	if g.Capability&common.CLIENT_PLUGIN_AUTH != 0 {
		cursor, authPluginLen = util.ReadByte(payload, cursor)
	} else {
		cursor++
	}

	if len(payload) < cursor+10 {
		return jerrors.Trace(ErrReadZero)
	}
	cursor += 10

	if g.Capability&common.CLIENT_SECURE_CONNECTION != 0 {
		read := int(authPluginLen) - 8
		if read <= 0 || read > 13 {
			read = 13
		}
		if len(payload) < cursor+read {
			return jerrors.Trace(ErrReadSalt)
		}
		var salt2 []byte
		cursor, salt2 = util.ReadBytes(payload, cursor, read)
		if salt2[read-1] != 0 {
			return jerrors.Trace(ErrReadSalt)
		}
		g.Salt = append(append([]byte{}, salt1...), salt2[:read-1]...)
	} else {
		g.Salt = append([]byte{}, salt1...)
	}

	if g.Capability&common.CLIENT_PLUGIN_AUTH != 0 {
		if _, name, ok := util.ReadStringWithNull(payload, cursor); ok {
			g.AuthPluginName = name
		}
	}
	return nil
}
