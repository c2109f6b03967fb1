package dispatcher

import (
	"bytes"
	"testing"

	jerrors "github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhukovaskychina/xmysql-proto/server"
	"github.com/zhukovaskychina/xmysql-proto/server/common"
	"github.com/zhukovaskychina/xmysql-proto/server/protocol"
	"github.com/zhukovaskychina/xmysql-proto/server/sqltypes"
)

type fakeHandler struct {
	queries []string
	fn      func(sql string, callback server.ResultCallback) error
}

func (h *fakeHandler) NewConnection(uint32)   {}
func (h *fakeHandler) CloseConnection(uint32) {}

func (h *fakeHandler) ComQuery(sql string, callback server.ResultCallback) error {
	h.queries = append(h.queries, sql)
	return h.fn(sql, callback)
}

// readFrames splits raw wire bytes into (sequence, payload) frames.
func readFrames(t *testing.T, raw []byte) []struct {
	seq     byte
	payload []byte
} {
	t.Helper()
	var frames []struct {
		seq     byte
		payload []byte
	}
	for len(raw) > 0 {
		require.GreaterOrEqual(t, len(raw), 4)
		length := int(raw[0]) | int(raw[1])<<8 | int(raw[2])<<16
		require.GreaterOrEqual(t, len(raw), 4+length)
		frames = append(frames, struct {
			seq     byte
			payload []byte
		}{raw[3], raw[4 : 4+length]})
		raw = raw[4+length:]
	}
	return frames
}

func command(payload ...byte) *bytes.Buffer {
	var buf bytes.Buffer
	buf.Write([]byte{byte(len(payload)), 0, 0, 0})
	buf.Write(payload)
	return &buf
}

func TestComQuit(t *testing.T) {
	stream := command(common.COM_QUIT)
	pkts := protocol.NewPackets(stream)
	_, err := HandleNextCommand(pkts, &fakeHandler{}, common.SERVER_STATUS_AUTOCOMMIT, 0)
	require.Error(t, err)
	assert.Equal(t, protocol.ErrComQuit, jerrors.Cause(err))
	assert.Zero(t, stream.Len(), "COM_QUIT must not produce a response")
}

func TestComPing(t *testing.T) {
	stream := command(common.COM_PING)
	pkts := protocol.NewPackets(stream)
	_, err := HandleNextCommand(pkts, &fakeHandler{}, common.SERVER_STATUS_AUTOCOMMIT, 0)
	require.NoError(t, err)

	frames := readFrames(t, stream.Bytes())
	require.Len(t, frames, 1)
	assert.Equal(t, byte(1), frames[0].seq)
	assert.Equal(t, []byte{0x00, 0, 0, 0x02, 0x00, 0x00, 0x00}, frames[0].payload)
}

func TestComInitDB(t *testing.T) {
	stream := command(append([]byte{common.COM_INIT_DB}, []byte("test_db")...)...)
	pkts := protocol.NewPackets(stream)
	_, err := HandleNextCommand(pkts, &fakeHandler{}, common.SERVER_STATUS_AUTOCOMMIT, 0)
	require.NoError(t, err)
	frames := readFrames(t, stream.Bytes())
	require.Len(t, frames, 1)
	assert.Equal(t, byte(0x00), frames[0].payload[0])
}

func TestComQueryAffectedRows(t *testing.T) {
	handler := &fakeHandler{fn: func(sql string, callback server.ResultCallback) error {
		return callback(&sqltypes.Result{AffectedRows: 12, InsertID: 34})
	}}
	stream := command(append([]byte{common.COM_QUERY}, []byte("UPDATE t SET a=1")...)...)
	pkts := protocol.NewPackets(stream)
	_, err := HandleNextCommand(pkts, handler, common.SERVER_STATUS_AUTOCOMMIT, 0)
	require.NoError(t, err)

	frames := readFrames(t, stream.Bytes())
	require.Len(t, frames, 1)
	assert.Equal(t, []byte{0x00, 12, 34, 0x02, 0x00, 0x00, 0x00}, frames[0].payload)
	assert.Equal(t, []string{"UPDATE t SET a=1"}, handler.queries)
}

func TestComQueryOneRowResultSet(t *testing.T) {
	handler := &fakeHandler{fn: func(sql string, callback server.ResultCallback) error {
		fields := &sqltypes.Result{Fields: []*sqltypes.Field{{
			Name: "c", OrgName: "c", Typ: sqltypes.Int32,
		}}}
		if err := callback(fields); err != nil {
			return err
		}
		return callback(&sqltypes.Result{Rows: [][]sqltypes.Value{
			{sqltypes.MakeValue(sqltypes.Int32, []byte("7"))},
		}})
	}}
	stream := command(append([]byte{common.COM_QUERY}, []byte("SELECT c FROM t")...)...)
	pkts := protocol.NewPackets(stream)
	_, err := HandleNextCommand(pkts, handler, common.SERVER_STATUS_AUTOCOMMIT, 0)
	require.NoError(t, err)

	frames := readFrames(t, stream.Bytes())
	// field count, column definition, EOF, row, EOF
	require.Len(t, frames, 5)
	assert.Equal(t, []byte{0x01}, frames[0].payload)
	assert.Equal(t, byte(0xFE), frames[2].payload[0])
	assert.Equal(t, []byte{0x01, '7'}, frames[3].payload)
	assert.Equal(t, byte(0xFE), frames[4].payload[0])
	require.Len(t, frames[4].payload, 5)
	for i, f := range frames {
		assert.Equal(t, byte(i+1), f.seq)
	}
}

func TestComQueryOneRowDeprecateEOF(t *testing.T) {
	handler := &fakeHandler{fn: func(sql string, callback server.ResultCallback) error {
		fields := &sqltypes.Result{Fields: []*sqltypes.Field{{Name: "c", Typ: sqltypes.Int32}}}
		if err := callback(fields); err != nil {
			return err
		}
		return callback(&sqltypes.Result{Rows: [][]sqltypes.Value{
			{sqltypes.MakeValue(sqltypes.Int32, []byte("7"))},
		}})
	}}
	stream := command(append([]byte{common.COM_QUERY}, []byte("SELECT c")...)...)
	pkts := protocol.NewPackets(stream)
	_, err := HandleNextCommand(pkts, handler, common.SERVER_STATUS_AUTOCOMMIT,
		common.CLIENT_DEPRECATE_EOF)
	require.NoError(t, err)

	frames := readFrames(t, stream.Bytes())
	// field count, column definition, row, OK-with-EOF-header
	require.Len(t, frames, 4)
	assert.Equal(t, []byte{0x01, '7'}, frames[2].payload)
	terminator := frames[3].payload
	assert.Equal(t, byte(0xFE), terminator[0])
	// an OK body, not the 5-byte EOF form
	assert.Greater(t, len(terminator), 5)
}

func TestComQueryHandlerError(t *testing.T) {
	handler := &fakeHandler{fn: func(sql string, callback server.ResultCallback) error {
		return jerrors.New("no such table")
	}}
	stream := command(append([]byte{common.COM_QUERY}, []byte("SELECT x")...)...)
	pkts := protocol.NewPackets(stream)
	_, err := HandleNextCommand(pkts, handler, common.SERVER_STATUS_AUTOCOMMIT, 0)
	require.NoError(t, err, "handler errors keep the command loop alive")

	frames := readFrames(t, stream.Bytes())
	require.Len(t, frames, 1)
	payload := frames[0].payload
	assert.Equal(t, byte(0xFF), payload[0])
	assert.Equal(t, "HY000", string(payload[4:9]))
	assert.Equal(t, "Unknown error", string(payload[9:]))
}

func TestComQueryCallbackAfterFinish(t *testing.T) {
	var cbErr error
	handler := &fakeHandler{fn: func(sql string, callback server.ResultCallback) error {
		if err := callback(&sqltypes.Result{AffectedRows: 1}); err != nil {
			return err
		}
		cbErr = callback(&sqltypes.Result{Rows: [][]sqltypes.Value{{sqltypes.IntValue(1)}}})
		return cbErr
	}}
	stream := command(append([]byte{common.COM_QUERY}, []byte("UPDATE t")...)...)
	pkts := protocol.NewPackets(stream)
	_, err := HandleNextCommand(pkts, handler, common.SERVER_STATUS_AUTOCOMMIT, 0)
	require.Error(t, err, "a callback after the terminal response is unrecoverable")
	assert.Error(t, cbErr)
}

func TestComQueryMultiStatements(t *testing.T) {
	handler := &fakeHandler{fn: func(sql string, callback server.ResultCallback) error {
		return callback(&sqltypes.Result{})
	}}
	stream := command(append([]byte{common.COM_QUERY}, []byte("SELECT 1; SELECT 2")...)...)
	pkts := protocol.NewPackets(stream)
	_, err := HandleNextCommand(pkts, handler, common.SERVER_STATUS_AUTOCOMMIT,
		common.CLIENT_MULTI_STATEMENTS)
	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT 1", "SELECT 2"}, handler.queries)

	frames := readFrames(t, stream.Bytes())
	require.Len(t, frames, 2)
	// first OK carries MORE_RESULTS_EXISTS, the last does not
	assert.Equal(t, byte(0x0A), frames[0].payload[3])
	assert.Equal(t, byte(0x02), frames[1].payload[3])
}

func TestComSetOption(t *testing.T) {
	stream := command(common.COM_SET_OPTION, 0x00, 0x00)
	pkts := protocol.NewPackets(stream)
	capability, err := HandleNextCommand(pkts, &fakeHandler{}, common.SERVER_STATUS_AUTOCOMMIT, 0)
	require.NoError(t, err)
	assert.NotZero(t, capability&common.CLIENT_MULTI_STATEMENTS)
	frames := readFrames(t, stream.Bytes())
	require.Len(t, frames, 1)
	assert.Equal(t, byte(0xFE), frames[0].payload[0])

	stream = command(common.COM_SET_OPTION, 0x01, 0x00)
	pkts = protocol.NewPackets(stream)
	capability, err = HandleNextCommand(pkts, &fakeHandler{}, common.SERVER_STATUS_AUTOCOMMIT, capability)
	require.NoError(t, err)
	assert.Zero(t, capability&common.CLIENT_MULTI_STATEMENTS)

	stream = command(common.COM_SET_OPTION, 0x07, 0x00)
	pkts = protocol.NewPackets(stream)
	_, err = HandleNextCommand(pkts, &fakeHandler{}, common.SERVER_STATUS_AUTOCOMMIT, 0)
	require.NoError(t, err)
	frames = readFrames(t, stream.Bytes())
	require.Len(t, frames, 1)
	assert.Equal(t, byte(0xFF), frames[0].payload[0])
}

func TestUnknownCommand(t *testing.T) {
	stream := command(common.COM_DAEMON)
	pkts := protocol.NewPackets(stream)
	_, err := HandleNextCommand(pkts, &fakeHandler{}, common.SERVER_STATUS_AUTOCOMMIT, 0)
	require.NoError(t, err)

	frames := readFrames(t, stream.Bytes())
	require.Len(t, frames, 1)
	payload := frames[0].payload
	assert.Equal(t, byte(0xFF), payload[0])
	assert.Equal(t, "08S01", string(payload[4:9]))
	assert.Equal(t, "Unknown command: COM_DAEMON", string(payload[9:]))
}
