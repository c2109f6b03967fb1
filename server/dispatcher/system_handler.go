package dispatcher

import (
	"strings"
	"sync/atomic"

	"github.com/zhukovaskychina/xmysql-proto/logger"
	"github.com/zhukovaskychina/xmysql-proto/server"
	"github.com/zhukovaskychina/xmysql-proto/server/common"
	"github.com/zhukovaskychina/xmysql-proto/server/sqltypes"
)

// SystemVariableHandler is the built-in handler the bundled binary runs
// with: it answers SELECT 1 and the @@variable probes drivers and shells
// issue on connect, and acknowledges everything else with an OK. Real deployments
// plug their own Handler into the listener.
type SystemVariableHandler struct {
	serverVersion string
	connections   int64
	variables     map[string]string
}

func NewSystemVariableHandler(serverVersion string) *SystemVariableHandler {
	return &SystemVariableHandler{
		serverVersion: serverVersion,
		variables: map[string]string{
			"version":                  serverVersion,
			"version_comment":          "xmysql-proto",
			"max_allowed_packet":       "16777215",
			"character_set_client":     "utf8",
			"character_set_connection": "utf8",
			"character_set_results":    "utf8",
			"autocommit":               "ON",
			"sql_mode":                 "",
			"tx_isolation":             "REPEATABLE-READ",
		},
	}
}

func (h *SystemVariableHandler) NewConnection(connectionID uint32) {
	n := atomic.AddInt64(&h.connections, 1)
	logger.Debugf("connection %d opened, %d active", connectionID, n)
}

func (h *SystemVariableHandler) CloseConnection(connectionID uint32) {
	n := atomic.AddInt64(&h.connections, -1)
	logger.Debugf("connection %d closed, %d active", connectionID, n)
}

func (h *SystemVariableHandler) ComQuery(sql string, callback server.ResultCallback) error {
	trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(sql), ";"))
	upper := strings.ToUpper(trimmed)

	switch {
	case strings.HasPrefix(upper, "SELECT @@"):
		return h.selectVariables(trimmed, callback)
	case upper == "SELECT 1":
		result := &sqltypes.Result{
			Fields: []*sqltypes.Field{{
				Name:      "1",
				OrgName:   "1",
				Typ:       sqltypes.Int64,
				ColumnLen: 1,
				Charset:   uint32(common.CHARACTER_SET_BINARY),
			}},
		}
		if err := callback(result); err != nil {
			return err
		}
		return callback(&sqltypes.Result{
			Rows: [][]sqltypes.Value{{sqltypes.IntValue(1)}},
		})
	default:
		// Everything else is acknowledged, not executed.
		return callback(&sqltypes.Result{})
	}
}

func (h *SystemVariableHandler) selectVariables(sql string, callback server.ResultCallback) error {
	fields := make([]*sqltypes.Field, 0, 4)
	row := make([]sqltypes.Value, 0, 4)
	for _, expr := range strings.Split(sql[len("SELECT "):], ",") {
		expr = strings.TrimSpace(expr)
		name := strings.TrimPrefix(expr, "@@")
		if dot := strings.IndexByte(name, '.'); dot >= 0 {
			// session./global. qualifiers
			name = name[dot+1:]
		}
		value, ok := h.variables[strings.ToLower(name)]
		fields = append(fields, &sqltypes.Field{
			Name:      expr,
			OrgName:   expr,
			Typ:       sqltypes.Varchar,
			ColumnLen: uint32(len(value)),
			Charset:   uint32(common.CHARACTER_SET_UTF8),
		})
		if !ok {
			row = append(row, sqltypes.NullValue())
		} else {
			row = append(row, sqltypes.StringValue(value))
		}
	}
	if err := callback(&sqltypes.Result{Fields: fields}); err != nil {
		return err
	}
	return callback(&sqltypes.Result{Rows: [][]sqltypes.Value{row}})
}
