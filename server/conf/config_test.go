package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhukovaskychina/xmysql-proto/server/auth"
)

const testINI = `
[mysqld]
bind-address       = 127.0.0.1
port               = 3309
server-version     = 5.7.25
profile-port       = 6061
max_session_number = 64
fail_fast_timeout  = 2s
log-level          = debug

[session]
tcp_no_delay      = true
tcp_keep_alive    = false
keep_alive_period = 90s
tcp_r_buf_size    = 131072
tcp_w_buf_size    = 32768
tcp_read_timeout  = 30s
tcp_write_timeout = 3s
compress_encoding = snappy
`

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "my.ini")
	require.NoError(t, os.WriteFile(path, []byte(testINI), 0644))

	cfg, err := NewCfg().Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.BindAddress)
	assert.Equal(t, 3309, cfg.Port)
	assert.Equal(t, "5.7.25", cfg.ServerVersion)
	assert.Equal(t, 6061, cfg.ProfilePort)
	assert.Equal(t, 64, cfg.SessionNumber)
	assert.Equal(t, 2*time.Second, cfg.FailFastTimeoutDuration)
	assert.Equal(t, "debug", cfg.LogLevel)

	assert.False(t, cfg.SessionParam.TcpKeepAlive)
	assert.Equal(t, 90*time.Second, cfg.SessionParam.KeepAlivePeriodDuration)
	assert.Equal(t, 131072, cfg.SessionParam.TcpRBufSize)
	assert.Equal(t, 30*time.Second, cfg.SessionParam.TcpReadTimeoutDuration)
	assert.Equal(t, 3*time.Second, cfg.SessionParam.TcpWriteTimeoutDuration)
	assert.Equal(t, "snappy", cfg.SessionParam.CompressEncoding)
}

func TestLoadConfigRejectsBadAddress(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "my.ini")
	require.NoError(t, os.WriteFile(path, []byte("[mysqld]\nbind-address = not-an-ip\n"), 0644))

	_, err := NewCfg().Load(path)
	assert.Error(t, err)
}

func TestLoadUsersDefault(t *testing.T) {
	credentials, err := LoadUsers("")
	require.NoError(t, err)
	require.Len(t, credentials, 1)
	assert.Equal(t, "root", credentials[0].User)
	assert.Empty(t, credentials[0].PasswordHash)
}

func TestLoadUsersFile(t *testing.T) {
	content := `
[[users]]
user = "root"
host = "%"

[[users]]
user = "app"
password = "password"

[[users]]
user = "svc"
password_hash = "2470c0c06dee42fd1618bb99005adca2ec9d1e19"
`
	dir := t.TempDir()
	path := filepath.Join(dir, "users.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	credentials, err := LoadUsers(path)
	require.NoError(t, err)
	require.Len(t, credentials, 3)

	assert.Equal(t, "root", credentials[0].User)
	assert.Empty(t, credentials[0].PasswordHash)

	assert.Equal(t, auth.HashPassword("password"), credentials[1].PasswordHash)
	assert.Equal(t, "%", credentials[1].Host)

	assert.Equal(t, "2470c0c06dee42fd1618bb99005adca2ec9d1e19", credentials[2].PasswordHash)
}

func TestLoadUsersRejectsNamelessEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[users]]\npassword = \"x\"\n"), 0644))

	_, err := LoadUsers(path)
	assert.Error(t, err)
}
