package fsys

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"os"

	"github.com/zeebo/blake3"

	"github.com/aharikum/forensicx/pkg/models"
)

// hashChunkSize bounds the memory used per file regardless of file size.
const hashChunkSize = 256 * 1024

// NewDigest returns a streaming hasher for a recognized algorithm name.
func NewDigest(name string) (hash.Hash, error) {
	switch name {
	case "crc32":
		return crc32.NewIEEE(), nil
	case "md5":
		return md5.New(), nil
	case "sha1":
		return sha1.New(), nil
	case "sha256":
		return sha256.New(), nil
	case "sha512":
		return sha512.New(), nil
	case "blake3":
		return blake3.New(), nil
	default:
		return nil, fmt.Errorf("unsupported digest algorithm: %s", name)
	}
}

// HashFile streams the file's full contents once and computes both digests
// of the pair in the same pass. Reads happen in bounded chunks with a
// cooperative cancellation check between chunks, so a hung read on a FUSE
// mount cannot stall the scan past its context deadline.
//
// Identical byte content always yields identical digest pairs regardless of
// path, timestamps or host. On any mid-stream failure the partial result is
// discarded and an error returned.
func HashFile(ctx context.Context, path string, pair models.DigestPair) (fastHex, strongHex string, err error) {
	fast, err := NewDigest(pair.Fast)
	if err != nil {
		return "", "", err
	}
	strong, err := NewDigest(pair.Strong)
	if err != nil {
		return "", "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	buf := make([]byte, hashChunkSize)
	both := io.MultiWriter(fast, strong)

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", "", ctxErr
		}

		n, readErr := f.Read(buf)
		if n > 0 {
			if _, werr := both.Write(buf[:n]); werr != nil {
				return "", "", werr
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", "", fmt.Errorf("failed to read file: %w", readErr)
		}
	}

	return hex.EncodeToString(fast.Sum(nil)), hex.EncodeToString(strong.Sum(nil)), nil
}
