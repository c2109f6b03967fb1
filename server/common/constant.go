package common

// MAX_PACKET_SIZE is the maximum payload length of one framed chunk.
const MAX_PACKET_SIZE = 1<<24 - 1

// PROTOCOL_VERSION is always 10.
const PROTOCOL_VERSION byte = 10

const (
	MYSQL_NATIVE_PASSWORD = "mysql_native_password"
	MYSQL_CLEAR_PASSWORD  = "mysql_clear_password"
)

// See http://dev.mysql.com/doc/internals/en/status-flags.html
const (
	SERVER_STATUS_AUTOCOMMIT   uint16 = 0x0002
	SERVER_MORE_RESULTS_EXISTS uint16 = 0x0008
)

// Response packet header bytes.
const (
	OK_PACKET  byte = 0x00
	ERR_PACKET byte = 0xFF
	EOF_PACKET byte = 0xFE
)

// Capability flags, originally from include/mysql/mysql_com.h.
const (
	CLIENT_LONG_PASSWORD uint32 = 1

	CLIENT_FOUND_ROWS uint32 = 1 << 1

	// Longer flags in ColumnDefinition320. Set everywhere, never used:
	// only ColumnDefinition41 is emitted.
	CLIENT_LONG_FLAG uint32 = 1 << 2

	CLIENT_CONNECT_WITH_DB uint32 = 1 << 3

	// New 4.1 protocol. Enforced everywhere.
	CLIENT_PROTOCOL_41 uint32 = 1 << 9

	// Switch to SSL after the greeting.
	CLIENT_SSL uint32 = 1 << 11

	// Can send status flags in EOF packets. Always set since 4.0.
	CLIENT_TRANSACTIONS uint32 = 1 << 13

	// New 4.1 authentication. Always set; selects the length-prefixed
	// auth-response form and salt part 2 in the handshake codecs.
	CLIENT_SECURE_CONNECTION uint32 = 1 << 15

	CLIENT_MULTI_STATEMENTS uint32 = 1 << 16

	CLIENT_MULTI_RESULTS uint32 = 1 << 17

	CLIENT_PLUGIN_AUTH uint32 = 1 << 19

	CLIENT_CONNECT_ATTRS uint32 = 1 << 20

	CLIENT_PLUGIN_AUTH_LENENC_CLIENT_DATA uint32 = 1 << 21

	// Expects an OK (instead of EOF) after the rows of a text resultset.
	CLIENT_DEPRECATE_EOF uint32 = 1 << 24
)

// DEFAULT_SERVER_CAPABILITY is what the greeting advertises.
const DEFAULT_SERVER_CAPABILITY = CLIENT_LONG_PASSWORD |
	CLIENT_LONG_FLAG |
	CLIENT_CONNECT_WITH_DB |
	CLIENT_PROTOCOL_41 |
	CLIENT_TRANSACTIONS |
	CLIENT_SECURE_CONNECTION |
	CLIENT_MULTI_STATEMENTS |
	CLIENT_MULTI_RESULTS |
	CLIENT_PLUGIN_AUTH |
	CLIENT_PLUGIN_AUTH_LENENC_CLIENT_DATA |
	CLIENT_DEPRECATE_EOF |
	CLIENT_CONNECT_ATTRS

// DEFAULT_CLIENT_CAPABILITY is what the bundled response writer sends;
// round-trip tests depend on it.
const DEFAULT_CLIENT_CAPABILITY = CLIENT_LONG_PASSWORD |
	CLIENT_LONG_FLAG |
	CLIENT_PROTOCOL_41 |
	CLIENT_TRANSACTIONS |
	CLIENT_MULTI_STATEMENTS |
	CLIENT_PLUGIN_AUTH |
	CLIENT_DEPRECATE_EOF |
	CLIENT_SECURE_CONNECTION

// Command bytes, see https://dev.mysql.com/doc/internals/en/command-phase.html
const (
	COM_SLEEP               byte = 0x00
	COM_QUIT                byte = 0x01
	COM_INIT_DB             byte = 0x02
	COM_QUERY               byte = 0x03
	COM_FIELD_LIST          byte = 0x04
	COM_CREATE_DB           byte = 0x05
	COM_DROP_DB             byte = 0x06
	COM_REFRESH             byte = 0x07
	COM_SHUTDOWN            byte = 0x08
	COM_STATISTICS          byte = 0x09
	COM_PROCESS_INFO        byte = 0x0a
	COM_CONNECT             byte = 0x0b
	COM_PROCESS_KILL        byte = 0x0c
	COM_DEBUG               byte = 0x0d
	COM_PING                byte = 0x0e
	COM_TIME                byte = 0x0f
	COM_DELAYED_INSERT      byte = 0x10
	COM_CHANGE_USER         byte = 0x11
	COM_BINLOG_DUMP         byte = 0x12
	COM_TABLE_DUMP          byte = 0x13
	COM_CONNECT_OUT         byte = 0x14
	COM_REGISTER_SLAVE      byte = 0x15
	COM_STMT_PREPARE        byte = 0x16
	COM_STMT_EXECUTE        byte = 0x17
	COM_STMT_SEND_LONG_DATA byte = 0x18
	COM_STMT_CLOSE          byte = 0x19
	COM_STMT_RESET          byte = 0x1a
	COM_SET_OPTION          byte = 0x1b
	COM_STMT_FETCH          byte = 0x1c
	COM_DAEMON              byte = 0x1d
	COM_BINLOG_DUMP_GTID    byte = 0x1e
	COM_RESET_CONNECTION    byte = 0x1f
)

var commandNames = map[byte]string{
	COM_SLEEP:               "COM_SLEEP",
	COM_QUIT:                "COM_QUIT",
	COM_INIT_DB:             "COM_INIT_DB",
	COM_QUERY:               "COM_QUERY",
	COM_FIELD_LIST:          "COM_FIELD_LIST",
	COM_CREATE_DB:           "COM_CREATE_DB",
	COM_DROP_DB:             "COM_DROP_DB",
	COM_REFRESH:             "COM_REFRESH",
	COM_SHUTDOWN:            "COM_SHUTDOWN",
	COM_STATISTICS:          "COM_STATISTICS",
	COM_PROCESS_INFO:        "COM_PROCESS_INFO",
	COM_CONNECT:             "COM_CONNECT",
	COM_PROCESS_KILL:        "COM_PROCESS_KILL",
	COM_DEBUG:               "COM_DEBUG",
	COM_PING:                "COM_PING",
	COM_TIME:                "COM_TIME",
	COM_DELAYED_INSERT:      "COM_DELAYED_INSERT",
	COM_CHANGE_USER:         "COM_CHANGE_USER",
	COM_BINLOG_DUMP:         "COM_BINLOG_DUMP",
	COM_TABLE_DUMP:          "COM_TABLE_DUMP",
	COM_CONNECT_OUT:         "COM_CONNECT_OUT",
	COM_REGISTER_SLAVE:      "COM_REGISTER_SLAVE",
	COM_STMT_PREPARE:        "COM_STMT_PREPARE",
	COM_STMT_EXECUTE:        "COM_STMT_EXECUTE",
	COM_STMT_SEND_LONG_DATA: "COM_STMT_SEND_LONG_DATA",
	COM_STMT_CLOSE:          "COM_STMT_CLOSE",
	COM_STMT_RESET:          "COM_STMT_RESET",
	COM_SET_OPTION:          "COM_SET_OPTION",
	COM_STMT_FETCH:          "COM_STMT_FETCH",
	COM_DAEMON:              "COM_DAEMON",
	COM_BINLOG_DUMP_GTID:    "COM_BINLOG_DUMP_GTID",
	COM_RESET_CONNECTION:    "COM_RESET_CONNECTION",
}

// CommandString names a command byte for logs and error packets.
func CommandString(cmd byte) string {
	if name, ok := commandNames[cmd]; ok {
		return name
	}
	return "COM_UNKNOWN"
}

// DEFAULT_SALT is the fixed 20-byte salt protocol tests share.
var DEFAULT_SALT = []byte{
	0x77, 0x63, 0x6a, 0x6d, 0x61, 0x22, 0x23, 0x27,
	0x38, 0x26, 0x55, 0x58, 0x3b, 0x5d, 0x44, 0x78, 0x53, 0x73, 0x6b, 0x41,
}
