// Package password hashes account passwords with Argon2id in the PHC string format.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/argon2"
)

// MinLength is the shortest password accepted for customer and staff accounts.
const MinLength = 8

const saltLen = 16

type params struct {
	time    uint32
	memory  uint32
	threads uint8
	keyLen  uint32
}

var current = params{time: 1, memory: 64 * 1024, threads: 4, keyLen: 32}

// Acceptable reports whether a new password satisfies the length policy.
// Surrounding whitespace does not count toward the length.
func Acceptable(password string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(password)) >= MinLength
}

func Hash(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password), salt, current.time, current.memory, current.threads, current.keyLen)
	return encode(current, salt, key), nil
}

// Verify checks whether a password matches the encoded hash.
func Verify(password, encoded string) bool {
	p, salt, key, ok := decode(encoded)
	if !ok {
		return false
	}
	check := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, check) == 1
}

// NeedsRehash reports whether an encoded hash was produced with parameters
// other than the current ones. Malformed hashes also need a rehash.
func NeedsRehash(encoded string) bool {
	p, _, _, ok := decode(encoded)
	return !ok || p != current
}

func encode(p params, salt, key []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.memory, p.time, p.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
}

func decode(encoded string) (params, []byte, []byte, bool) {
	var p params
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" || parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return p, nil, nil, false
	}

	fields := strings.Split(parts[3], ",")
	if len(fields) != 3 {
		return p, nil, nil, false
	}
	values := make([]uint64, 0, 3)
	for i, prefix := range []string{"m=", "t=", "p="} {
		raw, ok := strings.CutPrefix(fields[i], prefix)
		if !ok {
			return p, nil, nil, false
		}
		bits := 32
		if prefix == "p=" {
			bits = 8
		}
		v, err := strconv.ParseUint(raw, 10, bits)
		if err != nil {
			return p, nil, nil, false
		}
		values = append(values, v)
	}
	p.memory = uint32(values[0])
	p.time = uint32(values[1])
	p.threads = uint8(values[2])

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, false
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, false
	}
	p.keyLen = uint32(len(key))
	return p, salt, key, true
}
