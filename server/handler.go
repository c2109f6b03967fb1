package server

import (
	"github.com/zhukovaskychina/xmysql-proto/server/sqltypes"
)

// ResultCallback receives one result segment. The first segment either
// carries fields (a result set follows) or none (an affected-rows answer);
// later segments carry rows only. Write failures surface through the
// returned error and must be propagated by the handler.
type ResultCallback func(result *sqltypes.Result) error

// Handler executes queries on behalf of the protocol core. One handler is
// shared by every connection worker and must be safe for concurrent use.
type Handler interface {
	// NewConnection is called once the connection is authenticated.
	NewConnection(connectionID uint32)

	// CloseConnection is called after COM_QUIT or a terminal I/O failure.
	CloseConnection(connectionID uint32)

	// ComQuery runs one statement, streaming segments through callback.
	// The sql string must not be retained past return.
	ComQuery(sql string, callback ResultCallback) error
}
