package index

import (
	"sort"
	"sync"

	"minidb/pkg/errs"
	"minidb/pkg/primitives"
	"minidb/pkg/tuple"
	"minidb/pkg/types"
)

type entry struct {
	key types.Field
	rid tuple.RecordID
}

// Index is an ordered secondary index over a single column. Entries are
// kept sorted by key so an equality scan is a binary search; the index
// offers no range scan.
// NULL keys are not indexed; IS NULL predicates always scan the heap.
type Index struct {
	mu          sync.RWMutex
	Name        string
	TableName   string
	ColumnName  string
	ColumnIndex int
	Unique      bool
	entries     []entry
}

func NewIndex(name, tableName, columnName string, columnIndex int, unique bool) *Index {
	return &Index{
		Name:        name,
		TableName:   tableName,
		ColumnName:  columnName,
		ColumnIndex: columnIndex,
		Unique:      unique,
	}
}

func keyLess(a, b types.Field) bool {
	less, _ := a.Compare(primitives.LessThan, b)
	return less
}

// Insert adds a key→rid entry. A unique index rejects a duplicate
// non-NULL key.
func (idx *Index) Insert(key types.Field, rid tuple.RecordID) error {
	if types.IsNull(key) {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	pos := sort.Search(len(idx.entries), func(i int) bool {
		return !keyLess(idx.entries[i].key, key)
	})

	if idx.Unique && pos < len(idx.entries) && idx.entries[pos].key.Equals(key) {
		return errs.New(errs.CategoryUser, errs.CodeUniqueViolation,
			"duplicate key %s for unique index %s", key.String(), idx.Name)
	}

	idx.entries = append(idx.entries, entry{})
	copy(idx.entries[pos+1:], idx.entries[pos:])
	idx.entries[pos] = entry{key: key, rid: rid}
	return nil
}

// Delete removes the entry for (key, rid) if present.
func (idx *Index) Delete(key types.Field, rid tuple.RecordID) {
	if types.IsNull(key) {
		return
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for i := range idx.entries {
		if idx.entries[i].rid.Equals(&rid) && idx.entries[i].key.Equals(key) {
			idx.entries = append(idx.entries[:i], idx.entries[i+1:]...)
			return
		}
	}
}

// ScanEqual returns the record IDs whose key equals the given value, in
// key order.
func (idx *Index) ScanEqual(key types.Field) []tuple.RecordID {
	if types.IsNull(key) {
		return nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	start := sort.Search(len(idx.entries), func(i int) bool {
		return !keyLess(idx.entries[i].key, key)
	})

	var rids []tuple.RecordID
	for i := start; i < len(idx.entries) && idx.entries[i].key.Equals(key); i++ {
		rids = append(rids, idx.entries[i].rid)
	}
	return rids
}

// Len returns the number of indexed entries.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}
