package fsys

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aharikum/forensicx/pkg/models"
)

func writeTemp(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestHashFile_KnownDigests(t *testing.T) {
	// Digests of "hello", independently computed.
	path := writeTemp(t, []byte("hello"))

	fast, strong, err := HashFile(context.Background(), path, models.DigestPair{Fast: "md5", Strong: "sha256"})
	if err != nil {
		t.Fatalf("HashFile() error = %v", err)
	}

	if fast != "5d41402abc4b2a76b9719d911017c592" {
		t.Errorf("HashFile() md5 = %s", fast)
	}
	if strong != "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824" {
		t.Errorf("HashFile() sha256 = %s", strong)
	}
}

func TestHashFile_Deterministic(t *testing.T) {
	content := bytes.Repeat([]byte("forensic"), 100000) // spans several chunks

	pairs := []models.DigestPair{
		{Fast: "crc32", Strong: "sha256"},
		{Fast: "sha1", Strong: "sha512"},
		{Fast: "md5", Strong: "blake3"},
	}

	for _, pair := range pairs {
		t.Run(pair.String(), func(t *testing.T) {
			// Two different paths, identical bytes.
			p1 := writeTemp(t, content)
			p2 := writeTemp(t, content)

			f1, s1, err := HashFile(context.Background(), p1, pair)
			if err != nil {
				t.Fatalf("HashFile() error = %v", err)
			}
			f2, s2, err := HashFile(context.Background(), p2, pair)
			if err != nil {
				t.Fatalf("HashFile() error = %v", err)
			}

			if f1 != f2 || s1 != s2 {
				t.Errorf("HashFile() digests differ for identical content: %s/%s vs %s/%s", f1, s1, f2, s2)
			}
			if f1 == "" || s1 == "" {
				t.Error("HashFile() returned empty digest")
			}
		})
	}
}

func TestHashFile_DifferentContentDiffers(t *testing.T) {
	p1 := writeTemp(t, []byte("world"))
	p2 := writeTemp(t, []byte("world!"))

	pair := models.DigestPair{Fast: "md5", Strong: "sha256"}
	f1, s1, err := HashFile(context.Background(), p1, pair)
	if err != nil {
		t.Fatal(err)
	}
	f2, s2, err := HashFile(context.Background(), p2, pair)
	if err != nil {
		t.Fatal(err)
	}

	if f1 == f2 {
		t.Error("HashFile() fast digests equal for different content")
	}
	if s1 == s2 {
		t.Error("HashFile() strong digests equal for different content")
	}
}

func TestHashFile_Cancelled(t *testing.T) {
	path := writeTemp(t, []byte("content"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := HashFile(ctx, path, models.DigestPair{Fast: "md5", Strong: "sha256"}); err == nil {
		t.Error("HashFile() with cancelled context returned nil error")
	}
}

func TestHashFile_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone")
	if _, _, err := HashFile(context.Background(), path, models.DigestPair{Fast: "md5", Strong: "sha256"}); err == nil {
		t.Error("HashFile() on missing file returned nil error")
	}
}

func TestNewDigest_Unsupported(t *testing.T) {
	if _, err := NewDigest("rot13"); err == nil {
		t.Error("NewDigest() accepted unsupported algorithm")
	}
}
