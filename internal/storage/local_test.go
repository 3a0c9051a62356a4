package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n%%EOF\n")

func newLocal(t *testing.T, max int64) *Local {
	t.Helper()
	l, err := NewLocal(t.TempDir(), max, "file-secret")
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func TestPutOpenDelete(t *testing.T) {
	l := newLocal(t, 1<<20)
	ctx := context.Background()
	obj, err := l.Put(ctx, "7/case-1/1-ab-t4.pdf", bytes.NewReader(pdfBytes))
	if err != nil {
		t.Fatal(err)
	}
	if obj.Size != int64(len(pdfBytes)) || obj.MimeType != "application/pdf" {
		t.Fatalf("object = %+v", obj)
	}
	rc, err := l.Open(obj.Key)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := io.ReadAll(rc)
	rc.Close()
	if !bytes.Equal(got, pdfBytes) {
		t.Fatal("content changed")
	}
	if err := l.Delete(obj.Key); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Open(obj.Key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("open after delete err = %v", err)
	}
	if err := l.Delete(obj.Key); err != nil {
		t.Fatalf("second delete err = %v", err)
	}
}

func TestPutRejectsOversizedAndLeavesNothing(t *testing.T) {
	l := newLocal(t, 10)
	_, err := l.Put(context.Background(), "1/c/big.txt", strings.NewReader(strings.Repeat("x", 11)))
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("err = %v", err)
	}
	entries, _ := os.ReadDir(filepath.Join(l.root, "1", "c"))
	if len(entries) != 0 {
		t.Fatalf("left %d files behind", len(entries))
	}
	if _, err := l.Put(context.Background(), "1/c/ok.txt", strings.NewReader(strings.Repeat("x", 10))); err != nil {
		t.Fatalf("file at the limit rejected: %v", err)
	}
}

func TestKeysCannotEscapeRoot(t *testing.T) {
	l := newLocal(t, 0)
	for _, key := range []string{"", "/etc/passwd", "../x", "a/../../x", `a\b`} {
		if _, err := l.Put(context.Background(), key, strings.NewReader("x")); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Put(%q) err = %v", key, err)
		}
	}
}

func TestSignedURLRoundTripAndExpiry(t *testing.T) {
	now := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	l := newLocal(t, 0).WithClock(func() time.Time { return now })

	u, err := l.SignedURL("7/c/t4.pdf", "T4 2024.pdf", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	tok, ok := strings.CutPrefix(u, "/files/")
	if !ok {
		t.Fatalf("url = %q", u)
	}
	key, name, err := l.Resolve(tok)
	if err != nil || key != "7/c/t4.pdf" || name != "T4 2024.pdf" {
		t.Fatalf("Resolve = %q %q %v", key, name, err)
	}

	other, _ := NewLocal(t.TempDir(), 0, "another-secret")
	if _, _, err := other.Resolve(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign key accepted: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, _, err := l.Resolve(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token accepted: %v", err)
	}
}

func TestNewLocalRequiresKey(t *testing.T) {
	if _, err := NewLocal(t.TempDir(), 0, ""); err == nil {
		t.Fatal("empty signing key accepted")
	}
}
