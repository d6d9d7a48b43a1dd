package index

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring"

	"github.com/MrSnakeDoc/tidymark/internal/textproc"
)

// ErrIndexNotReady is returned by Search until the index has been built
// or restored from a snapshot.
var ErrIndexNotReady = errors.New("field index not ready")

// Hit is one search result from the field index.
type Hit struct {
	ID    string
	Score float64
}

// FieldIndex is an in-memory multi-field forward-token index. Every indexed
// term is expanded into its prefixes so partial words match.
//
// Bookmark IDs are mapped to dense uint32 ordinals; each (field, token)
// pair owns a roaring bitmap of ordinals.
type FieldIndex struct {
	mu sync.RWMutex

	postings map[Field]map[string]*roaring.Bitmap
	docs     map[uint32]Document
	ordinals map[string]uint32
	next     uint32

	ready   bool
	builtAt time.Time
}

// New creates an empty index that is not ready yet.
func New() *FieldIndex {
	idx := &FieldIndex{}
	idx.resetLocked()
	return idx
}

func (idx *FieldIndex) resetLocked() {
	idx.postings = make(map[Field]map[string]*roaring.Bitmap, len(AllFields))
	for _, f := range AllFields {
		idx.postings[f] = make(map[string]*roaring.Bitmap)
	}
	idx.docs = make(map[uint32]Document)
	idx.ordinals = make(map[string]uint32)
	idx.next = 0
	idx.ready = false
	idx.builtAt = time.Time{}
}

// Reset empties the index and marks it not ready. Searches then report
// ErrIndexNotReady until the next Rebuild or Import.
func (idx *FieldIndex) Reset() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.resetLocked()
}

// Rebuild replaces the whole index content and marks it ready.
func (idx *FieldIndex) Rebuild(docs []Document) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.resetLocked()
	for _, doc := range docs {
		idx.addLocked(doc)
	}
	idx.ready = true
	idx.builtAt = time.Now()
}

// ReconcileResult counts the changes Reconcile applied.
type ReconcileResult struct {
	Added   int
	Updated int
	Removed int
}

// Changed reports whether Reconcile touched the index.
func (r ReconcileResult) Changed() bool {
	return r.Added+r.Updated+r.Removed > 0
}

// Reconcile makes the index hold exactly docs: missing documents are added,
// documents whose tokens differ are replaced and the rest are removed.
func (idx *FieldIndex) Reconcile(docs []Document) ReconcileResult {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	var res ReconcileResult
	live := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		if doc.ID == "" {
			continue
		}
		live[doc.ID] = struct{}{}
		ord, ok := idx.ordinals[doc.ID]
		switch {
		case !ok:
			res.Added++
		case !idx.docs[ord].sameTokens(doc):
			res.Updated++
		default:
			continue
		}
		idx.addLocked(doc)
	}

	for id, ord := range idx.ordinals {
		if _, ok := live[id]; !ok {
			idx.unindexLocked(ord)
			delete(idx.ordinals, id)
			res.Removed++
		}
	}
	return res
}

// Add indexes a document. An existing document with the same ID is
// replaced.
func (idx *FieldIndex) Add(doc Document) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.addLocked(doc)
}

// Update is Add under another name, for call sites that know the
// document already exists.
func (idx *FieldIndex) Update(doc Document) {
	idx.Add(doc)
}

// Remove drops a document. It returns false when the ID was not indexed.
func (idx *FieldIndex) Remove(id string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	ord, ok := idx.ordinals[id]
	if !ok {
		return false
	}
	idx.unindexLocked(ord)
	delete(idx.ordinals, id)
	return true
}

func (idx *FieldIndex) addLocked(doc Document) {
	if doc.ID == "" {
		return
	}
	ord, exists := idx.ordinals[doc.ID]
	if exists {
		idx.unindexLocked(ord)
	} else {
		ord = idx.next
		idx.next++
		idx.ordinals[doc.ID] = ord
	}

	for f, tokens := range doc.Tokens {
		field := idx.postings[f]
		if field == nil {
			continue
		}
		for _, tok := range tokens {
			for _, p := range textproc.Prefixes(tok) {
				bm := field[p]
				if bm == nil {
					bm = roaring.New()
					field[p] = bm
				}
				bm.Add(ord)
			}
		}
	}
	idx.docs[ord] = doc
}

func (idx *FieldIndex) unindexLocked(ord uint32) {
	doc, ok := idx.docs[ord]
	if !ok {
		return
	}
	for f, tokens := range doc.Tokens {
		field := idx.postings[f]
		if field == nil {
			continue
		}
		for _, tok := range tokens {
			for _, p := range textproc.Prefixes(tok) {
				bm := field[p]
				if bm == nil {
					continue
				}
				bm.Remove(ord)
				if bm.IsEmpty() {
					delete(field, p)
				}
			}
		}
	}
	delete(idx.docs, ord)
}

// Search looks every term up in the given fields and returns the matching
// documents ordered by score, highest first. A term made of several words
// ("rust-lang") matches a field only when all its words do. The score sums
// the field boost for every (field, term) hit. No fields means all fields.
func (idx *FieldIndex) Search(terms []string, fields []Field, boost Boost) ([]Hit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if !idx.ready {
		return nil, ErrIndexNotReady
	}
	if len(fields) == 0 {
		fields = AllFields
	}
	if boost == nil {
		boost = DefaultBoost()
	}

	scores := make(map[uint32]float64)
	for _, term := range terms {
		words := textproc.Terms(term)
		if len(words) == 0 {
			continue
		}
		for _, f := range fields {
			matched := idx.lookupLocked(f, words)
			if matched == nil {
				continue
			}
			w := boost.weight(f)
			it := matched.Iterator()
			for it.HasNext() {
				scores[it.Next()] += w
			}
		}
	}

	hits := make([]Hit, 0, len(scores))
	for ord, score := range scores {
		doc, ok := idx.docs[ord]
		if !ok {
			continue
		}
		hits = append(hits, Hit{ID: doc.ID, Score: score})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	return hits, nil
}

// lookupLocked intersects the postings of every word in field f. It
// returns nil when nothing matches.
func (idx *FieldIndex) lookupLocked(f Field, words []string) *roaring.Bitmap {
	field := idx.postings[f]
	if field == nil {
		return nil
	}
	var acc *roaring.Bitmap
	for _, w := range words {
		bm := field[textproc.PrefixKey(w)]
		if bm == nil {
			return nil
		}
		if acc == nil {
			acc = bm.Clone()
			continue
		}
		acc.And(bm)
		if acc.IsEmpty() {
			return nil
		}
	}
	return acc
}

// Has reports whether a document is indexed.
func (idx *FieldIndex) Has(id string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.ordinals[id]
	return ok
}

// Len returns the number of indexed documents.
func (idx *FieldIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docs)
}

// Ready reports whether the index has been built or restored.
func (idx *FieldIndex) Ready() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.ready
}

// BuiltAt returns when the index was last built or restored.
func (idx *FieldIndex) BuiltAt() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.builtAt
}
