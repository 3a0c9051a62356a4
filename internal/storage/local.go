// Package storage keeps uploaded attachments on local disk and hands out
// short-lived signed download URLs.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTooLarge     = errors.New("file too large")
	ErrInvalidKey   = errors.New("invalid storage key")
	ErrInvalidToken = errors.New("invalid or expired file token")
	ErrNotFound     = errors.New("file not found")
)

// sniffLen is how much of the upload is inspected to detect its type.
const sniffLen = 3072

// Object describes a stored file.
type Object struct {
	Key      string
	Size     int64
	MimeType string
}

// Local is a disk-backed bucket rooted at a directory.
type Local struct {
	root     string
	maxBytes int64
	key      []byte
	now      func() time.Time
}

// NewLocal creates the root directory if needed. maxBytes <= 0 disables the
// size limit.
func NewLocal(root string, maxBytes int64, signingKey string) (*Local, error) {
	if signingKey == "" {
		return nil, errors.New("storage: empty signing key")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	return &Local{root: root, maxBytes: maxBytes, key: []byte(signingKey), now: time.Now}, nil
}

// WithClock replaces the clock used for token expiry.
func (l *Local) WithClock(now func() time.Time) *Local {
	l.now = now
	return l
}

// MaxBytes is the upload size limit.
func (l *Local) MaxBytes() int64 { return l.maxBytes }

func (l *Local) path(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") {
		return "", ErrInvalidKey
	}
	return filepath.Join(l.root, clean), nil
}

// Put stores r under key. The content type is detected from the first bytes.
// Nothing is left on disk when the size limit is exceeded.
func (l *Local) Put(ctx context.Context, key string, r io.Reader) (Object, error) {
	dst, err := l.path(key)
	if err != nil {
		return Object{}, err
	}
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return Object{}, err
	}
	head = head[:n]
	mime := mimetype.Detect(head).String()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return Object{}, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return Object{}, err
	}
	defer os.Remove(tmp.Name())

	src := io.MultiReader(bytes.NewReader(head), r)
	if l.maxBytes > 0 {
		src = io.LimitReader(src, l.maxBytes+1)
	}
	size, err := io.Copy(tmp, src)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Object{}, err
	}
	if l.maxBytes > 0 && size > l.maxBytes {
		return Object{}, ErrTooLarge
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return Object{}, err
	}
	return Object{Key: key, Size: size, MimeType: mime}, nil
}

// Open returns the content stored under key.
func (l *Local) Open(key string) (io.ReadCloser, error) {
	p, err := l.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

// Delete removes key. Missing files are not an error.
func (l *Local) Delete(key string) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

const fileAudience = "files"

type fileClaims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// SignedURL returns a path that serves key for ttl. name is the download
// filename offered to the browser.
func (l *Local) SignedURL(key, name string, ttl time.Duration) (string, error) {
	if _, err := l.path(key); err != nil {
		return "", err
	}
	now := l.now()
	claims := fileClaims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   key,
			Audience:  jwt.ClaimStrings{fileAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(l.key)
	if err != nil {
		return "", err
	}
	return "/files/" + tok, nil
}

// Resolve verifies a token from a signed URL and returns the key and
// download name it grants.
func (l *Local) Resolve(token string) (key, name string, err error) {
	var claims fileClaims
	_, err = jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) { return l.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(fileAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(l.now),
	)
	if err != nil || claims.Subject == "" {
		return "", "", ErrInvalidToken
	}
	return claims.Subject, claims.Name, nil
}
