package util

import (
	"crypto/sha1"
)

// ScramblePassword computes the mysql_native_password auth token:
// stage1 = SHA1(password)
// stage2 = SHA1(stage1)
// token  = stage1 XOR SHA1(salt || stage2)
// An empty password scrambles to an empty token.
func ScramblePassword(password []byte, salt []byte) []byte {
	if len(password) == 0 {
		return nil
	}
	sh := sha1.New()
	sh.Write(password)
	stage1 := sh.Sum(nil)

	sh.Reset()
	sh.Write(stage1)
	stage2 := sh.Sum(nil)

	sh.Reset()
	sh.Write(salt)
	sh.Write(stage2)
	mix := sh.Sum(nil)

	token := make([]byte, len(stage1))
	for i := range stage1 {
		token[i] = stage1[i] ^ mix[i]
	}
	return token
}

// Stage2Hash computes SHA1(SHA1(password)), the form a server-side
// credential store keeps (mysql.user authentication_string).
func Stage2Hash(password []byte) []byte {
	sh := sha1.New()
	sh.Write(password)
	stage1 := sh.Sum(nil)
	sh.Reset()
	sh.Write(stage1)
	return sh.Sum(nil)
}
