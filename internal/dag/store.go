package dag

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gocid "github.com/ipfs/go-cid"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multihash"
)

var (
	// ErrObjectNotFound is returned when no object with the requested id exists.
	ErrObjectNotFound = errors.New("object not found")
	// ErrAmbiguousID is returned when an abbreviated id matches more than one object.
	ErrAmbiguousID = errors.New("ambiguous object id")
)

// ObjectStore manages CID-addressed immutable objects on disk.
// Every object in one store shares a single multicodec: raw for blobs,
// dag-json for commits.
type ObjectStore struct {
	dir   string // path to objects/<kind>/ directory
	codec uint64
}

// NewObjectStore creates an ObjectStore at the given directory.
func NewObjectStore(dir string, codec uint64) (*ObjectStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create objects dir: %w", err)
	}
	return &ObjectStore{dir: dir, codec: codec}, nil
}

// ComputeCID computes a CIDv1 (SHA2-256) for the given data under codec.
func ComputeCID(codec uint64, data []byte) (gocid.Cid, error) {
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return gocid.Undef, fmt.Errorf("multihash: %w", err)
	}
	return gocid.NewCidV1(codec, mh), nil
}

// CIDToFilename returns the base32lower encoding of a CID for use as a filename.
func CIDToFilename(c gocid.Cid) string {
	encoded, _ := multibase.Encode(multibase.Base32, c.Bytes())
	return encoded
}

// ParseID decodes the multibase string form of an object id.
func ParseID(s string) (gocid.Cid, error) {
	_, cidBytes, err := multibase.Decode(strings.TrimSpace(s))
	if err != nil {
		return gocid.Undef, fmt.Errorf("decode id %q: %w", s, err)
	}
	return gocid.Cast(cidBytes)
}

// IDOf returns the id data would be stored under, without writing it.
func (s *ObjectStore) IDOf(data []byte) (string, error) {
	c, err := ComputeCID(s.codec, data)
	if err != nil {
		return "", err
	}
	return CIDToFilename(c), nil
}

// Put writes data to the object store, returning its id.
// If the object already exists, this is a no-op.
func (s *ObjectStore) Put(data []byte) (string, error) {
	id, err := s.IDOf(data)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, id)
	if _, err := os.Stat(path); err == nil {
		return id, nil // already exists
	}
	if err := SafeWrite(path, data, 0444); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}
	return id, nil
}

// Get reads an object by id.
func (s *ObjectStore) Get(id string) ([]byte, error) {
	if !s.valid(id) {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	data, err := os.ReadFile(filepath.Join(s.dir, id))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", id, err)
	}
	return data, nil
}

// Has checks if an object exists.
func (s *ObjectStore) Has(id string) bool {
	if !s.valid(id) {
		return false
	}
	_, err := os.Stat(filepath.Join(s.dir, id))
	return err == nil
}

// List returns the ids of every stored object, sorted.
func (s *ObjectStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		// skip directories and leftover .tmp-* files
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		ids = append(ids, e.Name())
	}
	sort.Strings(ids)
	return ids, nil
}

// Resolve expands an abbreviated id to the single stored id it prefixes.
func (s *ObjectStore) Resolve(prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", fmt.Errorf("%w: empty id", ErrObjectNotFound)
	}
	if s.Has(prefix) {
		return prefix, nil
	}
	ids, err := s.List()
	if err != nil {
		return "", err
	}
	match := ""
	for _, id := range ids {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("%w: %s", ErrAmbiguousID, prefix)
		}
		match = id
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", ErrObjectNotFound, prefix)
	}
	return match, nil
}

// valid reports whether id is the canonical base32 form of a CID of this
// store's codec. Anything else never names a file in the store.
func (s *ObjectStore) valid(id string) bool {
	c, err := ParseID(id)
	if err != nil {
		return false
	}
	return c.Prefix().Codec == s.codec && CIDToFilename(c) == id
}
