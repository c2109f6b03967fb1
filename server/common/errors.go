package common

// Server-side error codes, from include/mysql/mysqld_error.h and
// https://dev.mysql.com/doc/refman/5.7/en/error-messages-server.html
const (
	// unknown
	ERUnknownError uint16 = 1105
	// unimplemented
	ERNotSupportedYet uint16 = 1235
	// resource exhausted
	ERDiskFull               uint16 = 1021
	EROutOfMemory            uint16 = 1037
	EROutOfSortMemory        uint16 = 1038
	ERConCount               uint16 = 1040
	EROutOfResources         uint16 = 1041
	ERRecordFileFull         uint16 = 1114
	ERHostIsBlocked          uint16 = 1129
	ERCantCreateThread       uint16 = 1135
	ERNetPacketTooLarge      uint16 = 1153
	ERTooManyUserConnections uint16 = 1203
	ERLockTableFull          uint16 = 1206
	ERUserLimitReached       uint16 = 1226
	// deadline exceeded
	ERLockWaitTimeout uint16 = 1205
	// unavailable
	ERServerShutdown uint16 = 1053
	// not found
	ERFormNotFound uint16 = 1029
	ERKeyNotFound  uint16 = 1032
	ERBadFieldError uint16 = 1054
	ERNoSuchThread uint16 = 1094
	ERUnknownTable uint16 = 1109
	ERNoSuchTable  uint16 = 1146
	// permissions
	ERDBAccessDenied        uint16 = 1044
	ERAccessDeniedError     uint16 = 1045
	ERKillDenied            uint16 = 1095
	ERSpecifiedAccessDenied uint16 = 1227
	// failed precondition
	ERNoDb                uint16 = 1046
	ERTooBigSelect        uint16 = 1104
	ERNotAllowedCommand   uint16 = 1148
	ERReadOnlyTransaction uint16 = 1207
	// already exists
	ERTableExists uint16 = 1050
	ERDupEntry    uint16 = 1062
	ERFileExists  uint16 = 1086
	// aborted
	ERGotSignal          uint16 = 1078
	ERForcingClose       uint16 = 1080
	ERAbortingConnection uint16 = 1152
	ERLockDeadlock       uint16 = 1213
	// invalid arg
	ERUnknownComError       uint16 = 1047
	ERBadNullError          uint16 = 1048
	ERBadDb                 uint16 = 1049
	ERBadTable              uint16 = 1051
	ERParseError            uint16 = 1064
	EREmptyQuery            uint16 = 1065
	ERWrongDbName           uint16 = 1102
	ERWrongTableName        uint16 = 1103
	ERUnknownCharacterSet   uint16 = 1115
	ERSyntaxError           uint16 = 1149
	ERWrongColumnName       uint16 = 1166
	ERUnknownSystemVariable uint16 = 1193
	ERWrongArguments        uint16 = 1210
	ERWrongValueForVar      uint16 = 1231
	ERWrongTypeForVar       uint16 = 1232
	ERUnknownCollation      uint16 = 1273
	ERTruncatedWrongValue   uint16 = 1292
	ERQueryInterrupted      uint16 = 1317
	ERDataTooLong           uint16 = 1406
	ERDataOutOfRange        uint16 = 1690
)

// Client-side error codes, from include/mysql/errmsg.h.
const (
	CRUnknownError       uint16 = 2000
	CRConnectionError    uint16 = 2002
	CRConnHostError      uint16 = 2003
	CRServerGone         uint16 = 2006
	CRVersionError       uint16 = 2007
	CRServerHandshakeErr uint16 = 2012
	CRServerLost         uint16 = 2013
	CRCommandsOutOfSync  uint16 = 2014
	CRCantReadCharset    uint16 = 2019
	CRSSLConnectionError uint16 = 2026
	CRMalformedPacket    uint16 = 2027
)

// SQL states, from include/mysql/sql_state.h. The unknown state is the
// client library's unknown_sqlstate, "HY000".
const (
	SSUnknownSQLState               = "HY000"
	SSUnknownComError               = "08S01"
	SSHandshakeError                = "08S01"
	SSServerShutdown                = "08S01"
	SSDataTooLong                   = "22001"
	SSDataOutOfRange                = "22003"
	SSBadNullError                  = "23000"
	SSBadFieldError                 = "42S22"
	SSDupKey                        = "23000"
	SSCantDoThisDuringAnTransaction = "25000"
	SSAccessDeniedError             = "28000"
	SSLockDeadlock                  = "40001"
)
