package net

import (
	"net"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	gxlog "github.com/AlexStocks/goext/log"
	gxnet "github.com/AlexStocks/goext/net"
	log "github.com/AlexStocks/log4go"
	gxsync "github.com/dubbogo/gost/sync"
	jerrors "github.com/juju/errors"

	"github.com/zhukovaskychina/xmysql-proto/server"
	"github.com/zhukovaskychina/xmysql-proto/server/auth"
	"github.com/zhukovaskychina/xmysql-proto/server/conf"
)

const pprofPath = "/debug/pprof/"

const logBanner = `
******************************************************************************************
  xmysql-proto -- MySQL wire protocol server
******************************************************************************************
`

// MySQLServer accepts TCP connections and runs one blocking worker per
// connection. The handler is shared across workers.
type MySQLServer struct {
	conf      *conf.Cfg
	handler   server.Handler
	validator *auth.Validator

	listener net.Listener
	taskPool gxsync.GenericTaskPool

	connectionID uint32
	closed       int32
}

func NewMySQLServer(cfg *conf.Cfg, handler server.Handler, validator *auth.Validator) *MySQLServer {
	return &MySQLServer{
		conf:      cfg,
		handler:   handler,
		validator: validator,
	}
}

// Start binds the listen socket and launches the accept loop. It returns
// once the server is accepting.
func (srv *MySQLServer) Start() error {
	if srv.conf.ProfilePort > 0 {
		initProfiling(srv.conf)
	}
	compress, err := ParseCompressType(srv.conf.SessionParam.CompressEncoding)
	if err != nil {
		return err
	}

	addr := gxnet.HostAddress2(srv.conf.BindAddress, strconv.Itoa(srv.conf.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return jerrors.Annotatef(err, "listen on %s", addr)
	}
	srv.listener = listener
	srv.taskPool = gxsync.NewTaskPoolSimple(0)

	gxlog.CInfo(logBanner)
	gxlog.CInfo("%s starts successfull! version=%s, listen ends=%s",
		srv.conf.AppName, srv.conf.ServerVersion, listener.Addr())
	log.Info("%s starts successfull! version=%s, listen ends=%s",
		srv.conf.AppName, srv.conf.ServerVersion, listener.Addr())

	srv.taskPool.AddTaskAlways(func() { srv.acceptLoop(compress) })
	return nil
}

// Addr reports the bound listen address.
func (srv *MySQLServer) Addr() net.Addr {
	if srv.listener == nil {
		return nil
	}
	return srv.listener.Addr()
}

func (srv *MySQLServer) acceptLoop(compress CompressType) {
	for {
		conn, err := srv.listener.Accept()
		if err != nil {
			if atomic.LoadInt32(&srv.closed) == 1 {
				return
			}
			log.Error("accept failed: %v", err)
			continue
		}
		id := atomic.AddUint32(&srv.connectionID, 1)
		tc := srv.setupConn(conn, id, compress)
		// Every connection gets its own worker; the command loop blocks on
		// reads for the connection's whole lifetime.
		go srv.serveConn(tc)
	}
}

func (srv *MySQLServer) setupConn(conn net.Conn, id uint32, compress CompressType) *mysqlTCPConn {
	param := srv.conf.SessionParam
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(param.TcpNoDelay)
		_ = tcpConn.SetKeepAlive(param.TcpKeepAlive)
		if param.TcpKeepAlive && param.KeepAlivePeriodDuration > 0 {
			_ = tcpConn.SetKeepAlivePeriod(param.KeepAlivePeriodDuration)
		}
		if param.TcpRBufSize > 0 {
			_ = tcpConn.SetReadBuffer(param.TcpRBufSize)
		}
		if param.TcpWBufSize > 0 {
			_ = tcpConn.SetWriteBuffer(param.TcpWBufSize)
		}
	}
	tc := newMysqlTCPConn(conn, id)
	if param.TcpReadTimeoutDuration > 0 {
		tc.SetReadTimeout(param.TcpReadTimeoutDuration)
	}
	if param.TcpWriteTimeoutDuration > 0 {
		tc.SetWriteTimeout(param.TcpWriteTimeoutDuration)
	}
	if compress != CompressNone {
		tc.SetCompressType(compress)
	}
	log.Debug("accepted session %d from %s", id, tc.RemoteAddr())
	return tc
}

func (srv *MySQLServer) serveConn(tc *mysqlTCPConn) {
	defer tc.Close(0)
	c := NewConnection(tc.ID(), srv.conf.ServerVersion, srv.handler, srv.validator)
	if err := c.Handle(tc); err != nil {
		log.Debug("session %d from %s ended: %v", tc.ID(), tc.RemoteAddr(), err)
	}
}

// Stop closes the listener and the worker pool. Accepted connections are
// not closed; their workers run until the client disconnects.
func (srv *MySQLServer) Stop() {
	if !atomic.CompareAndSwapInt32(&srv.closed, 0, 1) {
		return
	}
	if srv.listener != nil {
		_ = srv.listener.Close()
	}
	if srv.taskPool != nil {
		srv.taskPool.Close()
	}
}

func initProfiling(cfg *conf.Cfg) {
	addr := gxnet.HostAddress(cfg.BindAddress, cfg.ProfilePort)
	log.Info("profiling endpoint on http://%s%s", addr, pprofPath)
	go func() {
		log.Info("%v", http.ListenAndServe(addr, nil))
	}()
}

// RunSignalLoop blocks until SIGTERM/SIGINT/SIGQUIT, then shuts down with
// a fail-fast timer. SIGHUP is reserved for a future config reload.
func (srv *MySQLServer) RunSignalLoop() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGHUP, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
	for {
		sig := <-signals
		log.Info("got signal %s", sig.String())
		switch sig {
		case syscall.SIGHUP:
			// reload
		default:
			time.AfterFunc(srv.conf.FailFastTimeoutDuration, func() {
				log.Warn("forced exit after %s", srv.conf.FailFastTimeout)
				log.Close()
				os.Exit(1)
			})
			srv.Stop()
			log.Close()
			return
		}
	}
}
