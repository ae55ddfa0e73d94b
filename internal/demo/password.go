package demo

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/syssam/saint/admin"
)

const (
	saltBytes = 16
	keyBytes  = 32
)

// HashPassword derives an argon2id key from password. The result holds
// the salt and the key: "argon2id$<salt>$<key>".
func HashPassword(password string) string {
	salt := make([]byte, saltBytes)
	_, _ = rand.Read(salt)
	return "argon2id$" + encode(salt) + "$" + encode(derive(password, salt))
}

// CheckPassword reports if password matches hash.
func CheckPassword(hash, password string) bool {
	parts := strings.Split(hash, "$")
	if len(parts) != 3 || parts[0] != "argon2id" {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(key, derive(password, salt)) == 1
}

func derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, keyBytes)
}

func encode(b []byte) string {
	return base64.RawStdEncoding.EncodeToString(b)
}

// hashPassword stores submitted passwords hashed and never sends the
// stored hash back to the edit page.
func hashPassword(v any, vc admin.ValueContext) any {
	switch vc.Scope {
	case admin.ScopeSave:
		s, ok := v.(string)
		if !ok || s == "" {
			return nil
		}
		return HashPassword(s)
	case admin.ScopeCrud:
		return ""
	}
	return nil
}
