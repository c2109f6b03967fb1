package conf

import (
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"

	"github.com/zhukovaskychina/xmysql-proto/server/auth"
)

// usersFile is the TOML credential store:
//
//	[[users]]
//	user = "root"
//	host = "%"
//	# either a plaintext password (hashed at load) ...
//	password = ""
//	# ... or the stored SHA1(SHA1(password)) hex form
//	password_hash = ""
type usersFile struct {
	Users []userEntry `toml:"users"`
}

type userEntry struct {
	User         string `toml:"user"`
	Host         string `toml:"host"`
	Password     string `toml:"password"`
	PasswordHash string `toml:"password_hash"`
}

// LoadUsers reads the credential store. An empty path yields the default
// passwordless root account.
func LoadUsers(path string) ([]auth.Credential, error) {
	if path == "" {
		return []auth.Credential{{User: "root", Host: "%"}}, nil
	}
	tree, err := toml.LoadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "load users file %s", path)
	}
	var parsed usersFile
	if err := tree.Unmarshal(&parsed); err != nil {
		return nil, errors.Wrapf(err, "decode users file %s", path)
	}
	credentials := make([]auth.Credential, 0, len(parsed.Users))
	for _, u := range parsed.Users {
		if u.User == "" {
			return nil, errors.Errorf("users file %s: entry without user", path)
		}
		hash := u.PasswordHash
		if hash == "" && u.Password != "" {
			hash = auth.HashPassword(u.Password)
		}
		host := u.Host
		if host == "" {
			host = "%"
		}
		credentials = append(credentials, auth.Credential{
			User:         u.User,
			Host:         host,
			PasswordHash: hash,
		})
	}
	return credentials, nil
}
