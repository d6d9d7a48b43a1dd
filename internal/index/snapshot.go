package index

import (
	"errors"
	"fmt"
	"time"

	"github.com/RoaringBitmap/roaring"

	"github.com/MrSnakeDoc/tidymark/internal/codec"
)

// CacheKey is the cache entry the serialized index lives under.
const CacheKey = "flexsearch_index"

// SnapshotVersion is bumped whenever the snapshot layout changes.
const SnapshotVersion = 1

var (
	// ErrSnapshotVersion means the snapshot was written by another layout
	// version and must be rebuilt.
	ErrSnapshotVersion = errors.New("index snapshot version mismatch")

	// ErrCorruptSnapshot means the snapshot could not be decoded or is
	// internally inconsistent.
	ErrCorruptSnapshot = errors.New("index snapshot corrupt")
)

type snapshotHeader struct {
	Version int `cbor:"v"`
}

type snapshot struct {
	Version   int                         `cbor:"v"`
	CreatedAt int64                       `cbor:"ts"`
	Next      uint32                      `cbor:"next"`
	Docs      map[uint32]Document         `cbor:"docs"`
	Postings  map[Field]map[string][]byte `cbor:"postings"`
}

// Export serializes the index as zstd-compressed CBOR.
func (idx *FieldIndex) Export() ([]byte, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if !idx.ready {
		return nil, ErrIndexNotReady
	}

	snap := snapshot{
		Version:   SnapshotVersion,
		CreatedAt: time.Now().UnixMilli(),
		Next:      idx.next,
		Docs:      idx.docs,
		Postings:  make(map[Field]map[string][]byte, len(idx.postings)),
	}
	for f, tokens := range idx.postings {
		out := make(map[string][]byte, len(tokens))
		for tok, bm := range tokens {
			raw, err := bm.ToBytes()
			if err != nil {
				return nil, fmt.Errorf("encode postings %s/%s: %w", f, tok, err)
			}
			out[tok] = raw
		}
		snap.Postings[f] = out
	}

	data, err := codec.MarshalCompressed(snap)
	if err != nil {
		return nil, fmt.Errorf("export index: %w", err)
	}
	return data, nil
}

// Import replaces the index content with a snapshot produced by Export.
// On error the current content is left untouched.
func (idx *FieldIndex) Import(data []byte) error {
	var head snapshotHeader
	if err := codec.UnmarshalCompressed(data, &head); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if head.Version != SnapshotVersion {
		return fmt.Errorf("%w: got %d, want %d", ErrSnapshotVersion, head.Version, SnapshotVersion)
	}

	var snap snapshot
	if err := codec.UnmarshalCompressed(data, &snap); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	ordinals := make(map[string]uint32, len(snap.Docs))
	for ord, doc := range snap.Docs {
		if doc.ID == "" || ord >= snap.Next {
			return fmt.Errorf("%w: bad document at ordinal %d", ErrCorruptSnapshot, ord)
		}
		if _, dup := ordinals[doc.ID]; dup {
			return fmt.Errorf("%w: duplicate document %q", ErrCorruptSnapshot, doc.ID)
		}
		ordinals[doc.ID] = ord
	}

	postings := make(map[Field]map[string]*roaring.Bitmap, len(AllFields))
	for _, f := range AllFields {
		postings[f] = make(map[string]*roaring.Bitmap)
	}
	for f, tokens := range snap.Postings {
		field, ok := postings[f]
		if !ok {
			return fmt.Errorf("%w: unknown field %q", ErrCorruptSnapshot, f)
		}
		for tok, raw := range tokens {
			bm := roaring.New()
			if err := bm.UnmarshalBinary(raw); err != nil {
				return fmt.Errorf("%w: postings %s/%s: %v", ErrCorruptSnapshot, f, tok, err)
			}
			it := bm.Iterator()
			for it.HasNext() {
				if _, ok := snap.Docs[it.Next()]; !ok {
					return fmt.Errorf("%w: postings %s/%s reference a missing document", ErrCorruptSnapshot, f, tok)
				}
			}
			field[tok] = bm
		}
	}

	if snap.Docs == nil {
		snap.Docs = make(map[uint32]Document)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.postings = postings
	idx.docs = snap.Docs
	idx.ordinals = ordinals
	idx.next = snap.Next
	idx.ready = true
	idx.builtAt = time.UnixMilli(snap.CreatedAt)
	return nil
}
