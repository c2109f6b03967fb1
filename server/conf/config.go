package conf

import (
	"net"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
)

// Cfg mirrors a my.ini-style configuration file:
//
//	[mysqld]
//	bind-address    = 127.0.0.1
//	port            = 3307
//	server-version  = 5.7.0
//	profile-port    = 6060
//	users-file      = users.toml
//	max_session_number = 1000
//	fail_fast_timeout  = 5s
//
//	[session]
//	tcp_no_delay      = true
//	tcp_keep_alive    = true
//	keep_alive_period = 180s
//	tcp_r_buf_size    = 262144
//	tcp_w_buf_size    = 65536
//	tcp_read_timeout  = 0s
//	tcp_write_timeout = 5s
//	compress_encoding = none
type Cfg struct {
	Raw *ini.File

	AppName       string
	BindAddress   string
	Port          int
	ServerVersion string
	ProfilePort   int
	UsersFile     string

	LogLevel string
	LogInfos string
	LogError string

	SessionNumber           int
	FailFastTimeout         string
	FailFastTimeoutDuration time.Duration

	SessionParam SessionParam
}

// SessionParam holds the per-connection TCP knobs.
type SessionParam struct {
	TcpNoDelay              bool
	TcpKeepAlive            bool
	KeepAlivePeriod         string
	KeepAlivePeriodDuration time.Duration
	TcpRBufSize             int
	TcpWBufSize             int
	TcpReadTimeout          string
	TcpReadTimeoutDuration  time.Duration
	TcpWriteTimeout         string
	TcpWriteTimeoutDuration time.Duration
	// CompressEncoding selects transport compression: none, flate,
	// snappy or lz4.
	CompressEncoding string
}

// NewCfg returns a runnable default configuration.
func NewCfg() *Cfg {
	return &Cfg{
		Raw:                     ini.Empty(),
		AppName:                 "xmysql-proto",
		BindAddress:             "127.0.0.1",
		Port:                    3307,
		ServerVersion:           "5.7.0",
		ProfilePort:             0,
		LogLevel:                "info",
		SessionNumber:           1000,
		FailFastTimeout:         "5s",
		FailFastTimeoutDuration: 5 * time.Second,
		SessionParam: SessionParam{
			TcpNoDelay:              true,
			TcpKeepAlive:            true,
			KeepAlivePeriod:         "180s",
			KeepAlivePeriodDuration: 180 * time.Second,
			TcpRBufSize:             262144,
			TcpWBufSize:             65536,
			TcpWriteTimeout:         "5s",
			TcpWriteTimeoutDuration: 5 * time.Second,
			CompressEncoding:        "none",
		},
	}
}

// Load overlays the configuration file at path onto the defaults.
func (cfg *Cfg) Load(path string) (*Cfg, error) {
	raw, err := ini.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "load configuration %s", path)
	}
	cfg.Raw = raw
	if err := cfg.parseMysqld(raw.Section("mysqld")); err != nil {
		return nil, err
	}
	if err := cfg.parseSession(raw.Section("session")); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Cfg) parseMysqld(section *ini.Section) error {
	bindAddress := section.Key("bind-address").MustString(cfg.BindAddress)
	if net.ParseIP(bindAddress) == nil {
		return errors.Errorf("bind-address %q is not an IP address", bindAddress)
	}
	cfg.BindAddress = bindAddress
	cfg.Port = section.Key("port").MustInt(cfg.Port)
	cfg.ServerVersion = section.Key("server-version").MustString(cfg.ServerVersion)
	cfg.ProfilePort = section.Key("profile-port").MustInt(cfg.ProfilePort)
	cfg.UsersFile = section.Key("users-file").MustString(cfg.UsersFile)
	cfg.SessionNumber = section.Key("max_session_number").MustInt(cfg.SessionNumber)
	cfg.LogLevel = section.Key("log-level").MustString(cfg.LogLevel)
	cfg.LogInfos = section.Key("log-info").MustString(cfg.LogInfos)
	cfg.LogError = section.Key("log-error").MustString(cfg.LogError)

	cfg.FailFastTimeout = section.Key("fail_fast_timeout").MustString(cfg.FailFastTimeout)
	d, err := time.ParseDuration(cfg.FailFastTimeout)
	if err != nil {
		return errors.Wrapf(err, "parse fail_fast_timeout %q", cfg.FailFastTimeout)
	}
	cfg.FailFastTimeoutDuration = d
	return nil
}

func (cfg *Cfg) parseSession(section *ini.Section) error {
	p := &cfg.SessionParam
	p.TcpNoDelay = section.Key("tcp_no_delay").MustBool(p.TcpNoDelay)
	p.TcpKeepAlive = section.Key("tcp_keep_alive").MustBool(p.TcpKeepAlive)
	p.TcpRBufSize = section.Key("tcp_r_buf_size").MustInt(p.TcpRBufSize)
	p.TcpWBufSize = section.Key("tcp_w_buf_size").MustInt(p.TcpWBufSize)
	p.CompressEncoding = section.Key("compress_encoding").MustString(p.CompressEncoding)

	p.KeepAlivePeriod = section.Key("keep_alive_period").MustString(p.KeepAlivePeriod)
	if p.KeepAlivePeriod != "" {
		d, err := time.ParseDuration(p.KeepAlivePeriod)
		if err != nil {
			return errors.Wrapf(err, "parse keep_alive_period %q", p.KeepAlivePeriod)
		}
		p.KeepAlivePeriodDuration = d
	}
	p.TcpReadTimeout = section.Key("tcp_read_timeout").MustString(p.TcpReadTimeout)
	if p.TcpReadTimeout != "" {
		d, err := time.ParseDuration(p.TcpReadTimeout)
		if err != nil {
			return errors.Wrapf(err, "parse tcp_read_timeout %q", p.TcpReadTimeout)
		}
		p.TcpReadTimeoutDuration = d
	}
	p.TcpWriteTimeout = section.Key("tcp_write_timeout").MustString(p.TcpWriteTimeout)
	if p.TcpWriteTimeout != "" {
		d, err := time.ParseDuration(p.TcpWriteTimeout)
		if err != nil {
			return errors.Wrapf(err, "parse tcp_write_timeout %q", p.TcpWriteTimeout)
		}
		p.TcpWriteTimeoutDuration = d
	}
	return nil
}
