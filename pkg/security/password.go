// Package security hashes and verifies passwords. Every stored hash carries
// its scheme in the prefix so the preferred scheme can change without
// invalidating existing credentials.
package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

type Scheme string

const (
	SchemeBcrypt   Scheme = "bcrypt"
	SchemeArgon2id Scheme = "argon2id"
)

var (
	ErrEmptyPassword   = errors.New("password is empty")
	ErrUnknownScheme   = errors.New("unknown hash scheme")
	ErrMalformedHash   = errors.New("malformed hash")
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)

// Argon2Params follows the RFC 9106 second recommended option.
type Argon2Params struct {
	Memory  uint32
	Time    uint32
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

var DefaultArgon2Params = Argon2Params{
	Memory:  64 * 1024,
	Time:    3,
	Threads: 4,
	SaltLen: 16,
	KeyLen:  32,
}

type Hasher struct {
	preferred  Scheme
	bcryptCost int
	argon      Argon2Params
}

type Option func(*Hasher)

func WithScheme(s Scheme) Option {
	return func(h *Hasher) { h.preferred = s }
}

func WithBcryptCost(cost int) Option {
	return func(h *Hasher) { h.bcryptCost = cost }
}

func WithArgon2Params(p Argon2Params) Option {
	return func(h *Hasher) { h.argon = p }
}

func NewHasher(opts ...Option) *Hasher {
	h := &Hasher{
		preferred:  SchemeBcrypt,
		bcryptCost: bcrypt.DefaultCost,
		argon:      DefaultArgon2Params,
	}
	for _, opt := range opts {
		opt(h)
	}

	return h
}

func (h *Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}

	switch h.preferred {
	case SchemeBcrypt:
		if len(plaintext) > 72 {
			return "", ErrPasswordTooLong
		}
		out, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.bcryptCost)
		if err != nil {
			return "", errors.Wrap(err, "bcrypt")
		}
		return string(out), nil
	case SchemeArgon2id:
		return h.hashArgon2id(plaintext)
	default:
		return "", ErrUnknownScheme
	}
}

// Verify never reports which part of the comparison failed. Unknown or
// malformed hashes verify as false.
func (h *Hasher) Verify(plaintext, hash string) bool {
	switch SchemeOf(hash) {
	case SchemeBcrypt:
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
	case SchemeArgon2id:
		p, salt, key, err := decodeArgon2id(hash)
		if err != nil {
			return false
		}
		got := argon2.IDKey([]byte(plaintext), salt, p.Time, p.Memory, p.Threads, uint32(len(key)))
		return subtle.ConstantTimeCompare(got, key) == 1
	default:
		return false
	}
}

// NeedsRehash reports whether hash was produced by a scheme or cost other than
// the preferred one.
func (h *Hasher) NeedsRehash(hash string) bool {
	scheme := SchemeOf(hash)
	if scheme != h.preferred {
		return true
	}

	switch scheme {
	case SchemeBcrypt:
		cost, err := bcrypt.Cost([]byte(hash))
		return err != nil || cost != h.bcryptCost
	case SchemeArgon2id:
		p, _, _, err := decodeArgon2id(hash)
		return err != nil || p.Memory != h.argon.Memory || p.Time != h.argon.Time || p.Threads != h.argon.Threads
	}

	return true
}

// SchemeOf identifies the scheme from the hash prefix. bcrypt keeps its
// native modular crypt prefixes so hashes written by other bcrypt
// implementations stay valid.
func SchemeOf(hash string) Scheme {
	switch {
	case strings.HasPrefix(hash, "$2a$"), strings.HasPrefix(hash, "$2b$"), strings.HasPrefix(hash, "$2y$"):
		return SchemeBcrypt
	case strings.HasPrefix(hash, "$argon2id$"):
		return SchemeArgon2id
	default:
		return ""
	}
}

func (h *Hasher) hashArgon2id(plaintext string) (string, error) {
	salt := make([]byte, h.argon.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Wrap(err, "salt")
	}

	key := argon2.IDKey([]byte(plaintext), salt, h.argon.Time, h.argon.Memory, h.argon.Threads, h.argon.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.argon.Memory, h.argon.Time, h.argon.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func decodeArgon2id(hash string) (Argon2Params, []byte, []byte, error) {
	var p Argon2Params

	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		return p, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, ErrMalformedHash
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return p, nil, nil, ErrMalformedHash
	}
	if p.Time == 0 || p.Threads == 0 {
		return p, nil, nil, ErrMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, ErrMalformedHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, ErrMalformedHash
	}
	p.SaltLen = uint32(len(salt))
	p.KeyLen = uint32(len(key))

	return p, salt, key, nil
}
