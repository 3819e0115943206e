package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// DefaultChunkSize bounds hashing memory to one buffer per call.
const DefaultChunkSize = 1 << 20

// HashFile streams the file's content through SHA-256 in chunkSize reads.
// The digest depends only on content, never on the chunk size. Read errors
// surface to the caller.
func HashFile(path string, chunkSize int) (string, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, chunkSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
