package auth

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"

	"github.com/pkg/errors"

	"github.com/zhukovaskychina/xmysql-proto/util"
)

var (
	ErrUnknownUser  = errors.New("unknown user")
	ErrAccessDenied = errors.New("access denied")
)

// Credential is one row of the user store. PasswordHash is the hex form of
// SHA1(SHA1(password)), the mysql.user representation; empty means a
// passwordless account.
type Credential struct {
	User         string
	Host         string
	PasswordHash string
}

// Validator checks mysql_native_password scrambles against a static user
// store. The store is immutable after construction, so a single validator
// serves all connection workers.
type Validator struct {
	store map[string]Credential
}

func NewValidator(credentials []Credential) *Validator {
	store := make(map[string]Credential, len(credentials))
	for _, c := range credentials {
		store[c.User] = c
	}
	return &Validator{store: store}
}

// HashPassword derives the stored form of a plaintext password.
func HashPassword(password string) string {
	if password == "" {
		return ""
	}
	return hex.EncodeToString(util.Stage2Hash([]byte(password)))
}

// Verify checks the client's auth response for user against the salt the
// greeting carried. The scramble is stage1 XOR SHA1(salt || stage2); the
// server recovers stage1 and checks SHA1(stage1) against the stored stage2.
func (v *Validator) Verify(user string, authResponse, salt []byte) error {
	cred, ok := v.store[user]
	if !ok {
		return errors.Wrapf(ErrUnknownUser, "user %q", user)
	}
	if cred.PasswordHash == "" {
		if len(authResponse) == 0 {
			return nil
		}
		return errors.Wrapf(ErrAccessDenied, "user %q", user)
	}
	if len(authResponse) != sha1.Size {
		return errors.Wrapf(ErrAccessDenied, "user %q", user)
	}
	stage2, err := hex.DecodeString(cred.PasswordHash)
	if err != nil || len(stage2) != sha1.Size {
		return errors.Wrapf(ErrAccessDenied, "user %q has malformed stored hash", user)
	}

	sh := sha1.New()
	sh.Write(salt)
	sh.Write(stage2)
	mix := sh.Sum(nil)

	stage1 := make([]byte, sha1.Size)
	for i := range stage1 {
		stage1[i] = authResponse[i] ^ mix[i]
	}
	sh.Reset()
	sh.Write(stage1)
	candidate := sh.Sum(nil)

	if subtle.ConstantTimeCompare(candidate, stage2) != 1 {
		return errors.Wrapf(ErrAccessDenied, "user %q", user)
	}
	return nil
}
