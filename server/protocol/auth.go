package protocol

import (
	"github.com/OneOfOne/xxhash"
	jerrors "github.com/juju/errors"

	"github.com/zhukovaskychina/xmysql-proto/logger"
	"github.com/zhukovaskychina/xmysql-proto/server/common"
	"github.com/zhukovaskychina/xmysql-proto/util"
)

// AuthPacket is the decoded HandshakeResponse41.
// https://dev.mysql.com/doc/internals/en/connection-phase-packets.html#packet-Protocol::HandshakeResponse41
//
// start      length      value
// 0          4           capability flags
// 4          4           max-packet size
// 8          1           character set
// 9          23          reserved (all [0])
// 32         unknown     user name
// unknown    unknown     (auth response length) auth response
// unknown    unknown     database
// unknown    unknown     plugin name
type AuthPacket struct {
	CharacterSet    uint8
	MaxPacketSize   uint32
	CapabilityFlags uint32
	AuthResponse    []byte
	AuthMethod      string
	Database        string
	User            string

	// Attrs holds the decoded connection attributes when the client sends
	// them; the protocol treats the block as opaque.
	Attrs       map[string]string
	AttrsDigest uint64
}

func NewAuthPacket() *AuthPacket {
	return &AuthPacket{}
}

// ParseClientHandshake decodes the client's handshake response. With first
// set, the stored capability is masked down to the response-framing bits
// (DEPRECATE_EOF, FOUND_ROWS); otherwise the client's flags are kept as is.
// MULTI_STATEMENTS is copied through in both modes.
func (a *AuthPacket) ParseClientHandshake(payload []byte, first bool) error {
	if len(payload) < 4 {
		return jerrors.Trace(ErrReadClientFlag)
	}
	cursor, clientFlag := util.ReadUB4(payload, 0)
	if clientFlag&common.CLIENT_PROTOCOL_41 == 0 {
		return jerrors.Trace(ErrProtocolNotSupport)
	}
	a.CapabilityFlags = clientFlag
	if first {
		a.CapabilityFlags = clientFlag &
			(common.CLIENT_DEPRECATE_EOF | common.CLIENT_FOUND_ROWS)
	}
	if clientFlag&common.CLIENT_MULTI_STATEMENTS != 0 {
		a.CapabilityFlags |= common.CLIENT_MULTI_STATEMENTS
	}

	if len(payload) < cursor+4 {
		return jerrors.Trace(ErrReadMaxPacketSize)
	}
	cursor, a.MaxPacketSize = util.ReadUB4(payload, cursor)

	if len(payload) < cursor+1 {
		return jerrors.Trace(ErrReadCharset)
	}
	cursor, a.CharacterSet = util.ReadByte(payload, cursor)

	if len(payload) < cursor+23 {
		return jerrors.Trace(ErrReadZero)
	}
	cursor += 23

	cursor, user, ok := util.ReadStringWithNull(payload, cursor)
	if !ok {
		return jerrors.Trace(ErrReadUser)
	}
	a.User = user

	if a.CapabilityFlags&(common.CLIENT_PLUGIN_AUTH_LENENC_CLIENT_DATA|common.CLIENT_SECURE_CONNECTION) != 0 {
		if len(payload) < cursor+1 {
			return jerrors.Trace(ErrReadAuthResponseLength)
		}
		var respLen byte
		cursor, respLen = util.ReadByte(payload, cursor)
		if len(payload) < cursor+int(respLen) {
			return jerrors.Trace(ErrReadAuthResponse)
		}
		cursor, a.AuthResponse = util.ReadBytes(payload, cursor, int(respLen))
	} else {
		if len(payload) < cursor+21 {
			return jerrors.Trace(ErrReadAuthResponse)
		}
		cursor, a.AuthResponse = util.ReadBytes(payload, cursor, 20)
		cursor++ // discard terminator
	}

	if a.CapabilityFlags&common.CLIENT_CONNECT_WITH_DB != 0 {
		var database string
		cursor, database, ok = util.ReadStringWithNull(payload, cursor)
		if !ok {
			return jerrors.Trace(ErrReadDatabase)
		}
		a.Database = database
	}

	if a.CapabilityFlags&common.CLIENT_PLUGIN_AUTH != 0 {
		var method string
		cursor, method, ok = util.ReadStringWithNull(payload, cursor)
		if !ok {
			return jerrors.Trace(ErrReadPlugin)
		}
		a.AuthMethod = method
	}
	// JDBC sometimes sends an empty auth method but expects native password.
	if a.AuthMethod == "" {
		a.AuthMethod = common.MYSQL_NATIVE_PASSWORD
	}

	if a.CapabilityFlags&common.CLIENT_CONNECT_ATTRS != 0 {
		a.parseConnAttrs(payload, cursor)
	}
	return nil
}

// parseConnAttrs decodes the trailing attribute block into a key/value map.
// The block is advisory; malformed content is dropped, never an error. A
// block shorter than its declared length is logged and parsed as far as it
// goes.
func (a *AuthPacket) parseConnAttrs(payload []byte, cursor int) {
	if cursor >= len(payload) {
		return
	}
	raw := payload[cursor:]
	a.AttrsDigest = xxhash.Checksum64(raw)

	cursor, total, ok := readLenEncSafe(payload, cursor)
	if !ok {
		return
	}
	end := cursor + int(total)
	if end > len(payload) {
		logger.Debugf("connection attributes truncated: want %d, have %d",
			total, len(payload)-cursor)
		end = len(payload)
	}
	attrs := make(map[string]string)
	for cursor < end {
		var key, value []byte
		cursor, key, ok = readLenEncStrSafe(payload, cursor, end)
		if !ok {
			return
		}
		cursor, value, ok = readLenEncStrSafe(payload, cursor, end)
		if !ok {
			return
		}
		attrs[string(key)] = string(value)
	}
	a.Attrs = attrs
}

func readLenEncSafe(payload []byte, cursor int) (int, uint64, bool) {
	if cursor >= len(payload) {
		return cursor, 0, false
	}
	need := util.GetLengthHeader(payload[cursor])
	if cursor+need > len(payload) {
		return cursor, 0, false
	}
	cursor, n := util.ReadLength(payload, cursor)
	return cursor, n, true
}

func readLenEncStrSafe(payload []byte, cursor, end int) (int, []byte, bool) {
	cursor, n, ok := readLenEncSafe(payload, cursor)
	if !ok || cursor+int(n) > end {
		return cursor, nil, false
	}
	cursor, raw := util.ReadBytes(payload, cursor, int(n))
	return cursor, raw, true
}

// WriteHandshakeResponse encodes a HandshakeResponse41, the mirror of
// ParseClientHandshake. CONNECT_WITH_DB follows whether database is set.
func WriteHandshakeResponse(capabilityFlag uint32, charset uint8, user, password string, salt []byte, database string) []byte {
	if database != "" {
		capabilityFlag |= common.CLIENT_CONNECT_WITH_DB
	} else {
		capabilityFlag &^= common.CLIENT_CONNECT_WITH_DB
	}
	buf := make([]byte, 0, 64+len(user)+len(database))
	buf = util.WriteUB4(buf, capabilityFlag)
	buf = util.WriteUB4(buf, 0)
	buf = util.WriteByte(buf, charset)
	buf = util.WriteBytes(buf, make([]byte, 23))
	buf = util.WriteWithNull(buf, []byte(user))

	authResp := util.ScramblePassword([]byte(password), salt)
	if capabilityFlag&common.CLIENT_SECURE_CONNECTION != 0 {
		buf = util.WriteByte(buf, byte(len(authResp)))
		buf = util.WriteBytes(buf, authResp)
	} else {
		buf = util.WriteBytes(buf, authResp)
		buf = util.WriteByte(buf, 0)
	}
	if capabilityFlag&common.CLIENT_CONNECT_WITH_DB != 0 {
		buf = util.WriteWithNull(buf, []byte(database))
	}
	buf = util.WriteWithNull(buf, []byte(common.MYSQL_NATIVE_PASSWORD))
	return buf
}
