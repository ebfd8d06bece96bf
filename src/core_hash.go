package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/afero"
)

// hashBlockSize is the read size used while hashing file content
const hashBlockSize = 64 * 1024

// Digest is a SHA-256 content digest
type Digest [sha256.Size]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// HashStore computes content digests and remembers which paths were seen
// with each digest during the current run
type HashStore struct {
	fs   afero.Fs
	mu   sync.Mutex
	seen map[Digest][]string
}

// NewHashStore returns an empty registry reading through fs
func NewHashStore(fs afero.Fs) *HashStore {
	return &HashStore{fs: fs, seen: make(map[Digest][]string)}
}

// Hash calculates the SHA-256 digest of a file in fixed-size blocks
func (h *HashStore) Hash(path string) (Digest, error) {
	f, err := h.fs.Open(path)
	if err != nil {
		return Digest{}, fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	return hashReader(f)
}

// hashReader feeds r to SHA-256 one hashBlockSize read at a time
func hashReader(r io.Reader) (Digest, error) {
	var d Digest
	hasher := sha256.New()
	buf := make([]byte, hashBlockSize)
	for {
		n, err := r.Read(buf)
		hasher.Write(buf[:n])
		if err == io.EOF {
			break
		}
		if err != nil {
			return d, fmt.Errorf("read: %w", err)
		}
	}
	copy(d[:], hasher.Sum(nil))
	return d, nil
}

// IsDuplicate reports whether digest was already recorded and by which path
func (h *HashStore) IsDuplicate(d Digest) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.firstSeen(d)
}

// Record adds path under digest
func (h *HashStore) Record(d Digest, path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.add(d, path)
}

// Claim records path and reports the first path seen with the same digest,
// if any, as one atomic step
func (h *HashStore) Claim(d Digest, path string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	first, dup := h.firstSeen(d)
	h.add(d, path)
	return first, dup
}

// Len returns the number of distinct digests seen
func (h *HashStore) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.seen)
}

// firstSeen and add expect h.mu to be held
func (h *HashStore) firstSeen(d Digest) (string, bool) {
	paths, ok := h.seen[d]
	if !ok {
		return "", false
	}
	return paths[0], true
}

func (h *HashStore) add(d Digest, path string) {
	h.seen[d] = append(h.seen[d], path)
}
