package net

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhukovaskychina/xmysql-proto/server/auth"
	"github.com/zhukovaskychina/xmysql-proto/server/common"
	"github.com/zhukovaskychina/xmysql-proto/server/dispatcher"
	"github.com/zhukovaskychina/xmysql-proto/server/protocol"
	"github.com/zhukovaskychina/xmysql-proto/util"
)

func testValidator() *auth.Validator {
	return auth.NewValidator([]auth.Credential{
		{User: "root", Host: "%"},
		{User: "app", Host: "%", PasswordHash: auth.HashPassword("password")},
	})
}

// runConnection wires a Connection to one end of an in-memory pipe and
// hands the other end to the test, which plays the client.
func runConnection(t *testing.T) (*protocol.Packets, net.Conn, chan error) {
	t.Helper()
	serverEnd, clientEnd := net.Pipe()
	conn := NewConnection(7, "5.7.0", dispatcher.NewSystemVariableHandler("5.7.0"), testValidator())
	done := make(chan error, 1)
	go func() {
		done <- conn.Handle(serverEnd)
		serverEnd.Close()
	}()
	t.Cleanup(func() { clientEnd.Close() })
	return protocol.NewPackets(clientEnd), clientEnd, done
}

// clientHandshake consumes the greeting and authenticates as user/password.
func clientHandshake(t *testing.T, pkts *protocol.Packets, user, password string) *protocol.Greeting {
	t.Helper()
	payload, err := pkts.ReadPackets()
	require.NoError(t, err)
	greeting := &protocol.Greeting{}
	require.NoError(t, greeting.ParseHandshakeV10(payload))
	assert.Equal(t, uint32(common.DEFAULT_SERVER_CAPABILITY), greeting.Capability)
	assert.Len(t, greeting.Salt, 20)

	resp := protocol.WriteHandshakeResponse(common.DEFAULT_CLIENT_CAPABILITY,
		common.CHARACTER_SET_UTF8, user, password, greeting.Salt, "")
	require.NoError(t, pkts.WritePacket(resp))
	return greeting
}

func TestConnectionHandshakeAndQuit(t *testing.T) {
	pkts, _, done := runConnection(t)
	clientHandshake(t, pkts, "root", "")

	ok, err := pkts.ReadPackets()
	require.NoError(t, err)
	assert.Equal(t, common.OK_PACKET, ok[0])
	assert.Equal(t, uint8(3), pkts.SequenceID(), "auth OK arrives at sequence 2")

	pkts.ResetSequence()
	require.NoError(t, pkts.WritePacket([]byte{common.COM_QUIT}))
	assert.NoError(t, <-done)
}

func TestConnectionHandshakeWithPassword(t *testing.T) {
	pkts, _, done := runConnection(t)
	clientHandshake(t, pkts, "app", "password")

	ok, err := pkts.ReadPackets()
	require.NoError(t, err)
	assert.Equal(t, common.OK_PACKET, ok[0])

	pkts.ResetSequence()
	require.NoError(t, pkts.WritePacket([]byte{common.COM_QUIT}))
	assert.NoError(t, <-done)
}

func TestConnectionAuthFailure(t *testing.T) {
	pkts, _, done := runConnection(t)
	clientHandshake(t, pkts, "app", "wrong")

	payload, err := pkts.ReadPackets()
	require.NoError(t, err)
	assert.Equal(t, common.ERR_PACKET, payload[0])
	_, code := util.ReadUB2(payload, 1)
	assert.Equal(t, common.ERAccessDeniedError, code)
	assert.Equal(t, "28000", string(payload[4:9]))
	assert.Error(t, <-done)
}

func TestConnectionCommandCycle(t *testing.T) {
	pkts, _, done := runConnection(t)
	clientHandshake(t, pkts, "root", "")
	_, err := pkts.ReadPackets()
	require.NoError(t, err)

	// COM_PING at a fresh sequence
	pkts.ResetSequence()
	require.NoError(t, pkts.WritePacket([]byte{common.COM_PING}))
	pong, err := pkts.ReadPackets()
	require.NoError(t, err)
	assert.Equal(t, common.OK_PACKET, pong[0])

	// a query streamed back as a one-column result set
	pkts.ResetSequence()
	require.NoError(t, pkts.WritePacket(append([]byte{common.COM_QUERY}, []byte("SELECT 1")...)))
	count, err := pkts.ReadPackets()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, count)
	_, err = pkts.ReadPackets() // column definition
	require.NoError(t, err)
	row, err := pkts.ReadPackets()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, '1'}, row)
	terminator, err := pkts.ReadPackets()
	require.NoError(t, err)
	// DEFAULT_CLIENT_CAPABILITY negotiates DEPRECATE_EOF
	assert.Equal(t, common.EOF_PACKET, terminator[0])
	assert.Greater(t, len(terminator), 5)

	pkts.ResetSequence()
	require.NoError(t, pkts.WritePacket([]byte{common.COM_QUIT}))
	assert.NoError(t, <-done)
}
