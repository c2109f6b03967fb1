package dispatcher

import (
	jerrors "github.com/juju/errors"

	"github.com/zhukovaskychina/xmysql-proto/logger"
	"github.com/zhukovaskychina/xmysql-proto/server"
	"github.com/zhukovaskychina/xmysql-proto/server/common"
	"github.com/zhukovaskychina/xmysql-proto/server/protocol"
	"github.com/zhukovaskychina/xmysql-proto/server/sqltypes"
	"github.com/zhukovaskychina/xmysql-proto/util"
)

// HandleNextCommand reads one client command, dispatches it and writes the
// response. It resets the framer's sequence counter for the new cycle and
// returns the (possibly updated) effective capability: COM_SET_OPTION
// toggles MULTI_STATEMENTS for the rest of the connection.
//
// protocol.ErrComQuit signals a clean disconnect; any other error is
// terminal for the connection.
func HandleNextCommand(pkts *protocol.Packets, handler server.Handler, statusFlags uint16, capability uint32) (uint32, error) {
	pkts.ResetSequence()
	pkts.SetCapability(capability)
	pkts.SetStatusFlags(statusFlags)

	data, err := pkts.ReadEphemeralPacket()
	if err != nil {
		return capability, err
	}
	if len(data) == 0 {
		return capability, jerrors.Trace(protocol.ErrEmptyPacket)
	}

	cmd := data[0]
	logger.Debugf("command %s", common.CommandString(cmd))

	switch cmd {
	case common.COM_QUIT:
		return capability, jerrors.Trace(protocol.ErrComQuit)

	case common.COM_INIT_DB:
		db := string(data[1:])
		logger.Debugf("init db %s", db)
		return capability, pkts.WriteOKPacket(0, 0, statusFlags, 0)

	case common.COM_PING:
		return capability, pkts.WriteOKPacket(0, 0, statusFlags, 0)

	case common.COM_QUERY:
		query := string(data[1:])
		statements := []string{query}
		if capability&common.CLIENT_MULTI_STATEMENTS != 0 {
			statements = SplitStatements(query)
		}
		for index, sql := range statements {
			more := index != len(statements)-1
			if err := execQuery(pkts, handler, sql, more); err != nil {
				return capability, err
			}
		}
		return capability, nil

	case common.COM_SET_OPTION:
		if len(data) < 3 {
			return capability, pkts.WriteErrPacket(common.ERUnknownComError,
				common.SSUnknownComError, "Error parsing set option")
		}
		_, option := util.ReadUB2(data, 1)
		switch option {
		case 0:
			capability |= common.CLIENT_MULTI_STATEMENTS
		case 1:
			capability &^= common.CLIENT_MULTI_STATEMENTS
		default:
			return capability, pkts.WriteErrPacket(common.ERUnknownComError,
				common.SSUnknownComError, "Unknown set option")
		}
		pkts.SetCapability(capability)
		return capability, pkts.WriteEndResult(false, 0, 0, 0)

	case common.COM_STMT_PREPARE, common.COM_STMT_EXECUTE,
		common.COM_STMT_RESET, common.COM_STMT_CLOSE:
		// Prepared statements are not implemented; acknowledge so clients
		// that probe do not hang.
		return capability, pkts.WriteOKPacket(0, 0, statusFlags, 0)

	default:
		name := common.CommandString(cmd)
		logger.Warnf("unknown command %s (0x%02x)", name, cmd)
		return capability, pkts.WriteErrPacket(common.ERUnknownComError,
			common.SSUnknownComError, "Unknown command: "+name)
	}
}

// execQuery drives the handler for one statement, folding its streamed
// segments into protocol packets. The first segment decides the response
// shape; a segment after a terminal affected-rows answer is refused.
func execQuery(pkts *protocol.Packets, handler server.Handler, sql string, more bool) error {
	var (
		sendFinished bool
		fieldSent    bool
	)
	err := handler.ComQuery(sql, func(qr *sqltypes.Result) error {
		flags := pkts.StatusFlags()
		if more {
			flags |= common.SERVER_MORE_RESULTS_EXISTS
		}
		if sendFinished {
			return jerrors.New("callback after affected-rows response")
		}
		if !fieldSent {
			fieldSent = true
			if len(qr.Fields) == 0 {
				sendFinished = true
				return pkts.WriteOKPacket(qr.AffectedRows, qr.InsertID, flags, 0)
			}
			return pkts.WriteFields(qr)
		}
		return pkts.WriteRows(qr)
	})
	if err != nil {
		if fieldSent {
			// Mid result set there is no way to report the failure in
			// band; the connection is out of sync.
			return jerrors.Trace(err)
		}
		logger.Errorf("query failed: %v", err)
		return pkts.WriteErrPacketFromError()
	}
	if fieldSent {
		if !sendFinished {
			return pkts.WriteEndResult(more, 0, 0, 0)
		}
		return nil
	}
	// The handler returned without producing a segment; answer OK so the
	// client does not hang waiting for a response.
	return pkts.WriteOKPacket(0, 0, pkts.StatusFlags(), 0)
}
