package heap

import (
	"fmt"
	"sync"

	"minidb/pkg/catalog/schema"
	"minidb/pkg/concurrency/transaction"
	"minidb/pkg/errs"
	"minidb/pkg/storage/index"
	"minidb/pkg/tuple"
	"minidb/pkg/types"
)

// recordsPerPage fixes the RecordID layout: slot i lives on page
// i/recordsPerPage. The in-memory heap keeps the page/slot shape so
// lock ordering and record identity behave like the on-disk layout.
const recordsPerPage = 64

type storedRecord struct {
	tup  *tuple.Tuple
	live bool
}

// Table is a heap-organized table: an append-only record area with
// liveness flags, plus the secondary indexes attached to it. All
// mutations go through a transaction, which takes the record locks and
// keeps the undo log.
type Table struct {
	mu      sync.RWMutex
	schema  *schema.Schema
	records []storedRecord
	indexes []*index.Index
}

func NewTable(sch *schema.Schema) *Table {
	return &Table{schema: sch}
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.schema.TableName
}

// Schema returns the table schema.
func (t *Table) Schema() *schema.Schema {
	return t.schema
}

// TupleDesc returns the table's row shape with qualified column names.
func (t *Table) TupleDesc() *tuple.TupleDescription {
	return t.schema.TupleDesc()
}

func ridToSlot(rid *tuple.RecordID) int {
	return rid.PageNo*recordsPerPage + rid.Slot
}

func slotToRID(slot int) *tuple.RecordID {
	return tuple.NewRecordID(slot/recordsPerPage, slot%recordsPerPage)
}

// validateRow checks arity, NOT NULL constraints, and column types of
// an incoming row against the schema.
func (t *Table) validateRow(tup *tuple.Tuple) error {
	if tup.TupleDesc.NumFields() != t.schema.NumColumns() {
		return errs.New(errs.CategoryUser, errs.CodeInvalidArgument,
			"table %s expects %d values, got %d",
			t.Name(), t.schema.NumColumns(), tup.TupleDesc.NumFields())
	}

	for i, col := range t.schema.Columns {
		f, err := tup.GetField(i)
		if err != nil {
			return err
		}
		if types.IsNull(f) {
			if !col.Nullable {
				return errs.New(errs.CategoryUser, errs.CodeNotNullViolation,
					"column %s.%s cannot be NULL", t.Name(), col.Name)
			}
			continue
		}
		if f.Type() != col.Type {
			return errs.New(errs.CategoryUser, errs.CodeTypeMismatch,
				"column %s.%s expects %s, got %s", t.Name(), col.Name, col.Type, f.Type())
		}
	}
	return nil
}

// InsertRecord validates and appends a row, maintains the indexes, and
// logs undo information. The new record is exclusively locked.
func (t *Table) InsertRecord(tx *transaction.TransactionContext, tup *tuple.Tuple) (*tuple.RecordID, error) {
	if err := t.validateRow(tup); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	rid := slotToRID(len(t.records))
	if err := tx.AcquireLock(t.Name(), *rid, transaction.ExclusiveLock); err != nil {
		return nil, err
	}

	// Unique checks run before any index is touched so a failure
	// leaves every index untouched.
	for _, idx := range t.indexes {
		if !idx.Unique {
			continue
		}
		key, err := tup.GetField(idx.ColumnIndex)
		if err != nil {
			return nil, err
		}
		if !types.IsNull(key) && len(idx.ScanEqual(key)) > 0 {
			return nil, errs.New(errs.CategoryUser, errs.CodeUniqueViolation,
				"duplicate key %s for unique index %s", key.String(), idx.Name)
		}
	}

	stored := tup.Clone()
	stored.RecordID = rid
	t.records = append(t.records, storedRecord{tup: stored, live: true})

	for _, idx := range t.indexes {
		key, err := stored.GetField(idx.ColumnIndex)
		if err != nil {
			return nil, err
		}
		if err := idx.Insert(key, *rid); err != nil {
			return nil, err
		}
	}

	tx.LogInsert(t, rid)
	return rid, nil
}

// UpdateRecord replaces the row at rid with the new values.
func (t *Table) UpdateRecord(tx *transaction.TransactionContext, rid *tuple.RecordID, newTup *tuple.Tuple) error {
	if err := t.validateRow(newTup); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	slot := ridToSlot(rid)
	if slot < 0 || slot >= len(t.records) || !t.records[slot].live {
		return fmt.Errorf("record %s does not exist in table %s", rid, t.Name())
	}
	if err := tx.AcquireLock(t.Name(), *rid, transaction.ExclusiveLock); err != nil {
		return err
	}

	before := t.records[slot].tup
	replacement := newTup.Clone()
	replacement.RecordID = rid

	for _, idx := range t.indexes {
		oldKey, err := before.GetField(idx.ColumnIndex)
		if err != nil {
			return err
		}
		newKey, err := replacement.GetField(idx.ColumnIndex)
		if err != nil {
			return err
		}
		if oldKey.Equals(newKey) {
			continue
		}
		if idx.Unique && !types.IsNull(newKey) && len(idx.ScanEqual(newKey)) > 0 {
			return errs.New(errs.CategoryUser, errs.CodeUniqueViolation,
				"duplicate key %s for unique index %s", newKey.String(), idx.Name)
		}
		idx.Delete(oldKey, *rid)
		if err := idx.Insert(newKey, *rid); err != nil {
			return err
		}
	}

	t.records[slot].tup = replacement
	tx.LogUpdate(t, rid, before)
	return nil
}

// DeleteRecord removes the row at rid.
func (t *Table) DeleteRecord(tx *transaction.TransactionContext, rid *tuple.RecordID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	slot := ridToSlot(rid)
	if slot < 0 || slot >= len(t.records) || !t.records[slot].live {
		return fmt.Errorf("record %s does not exist in table %s", rid, t.Name())
	}
	if err := tx.AcquireLock(t.Name(), *rid, transaction.ExclusiveLock); err != nil {
		return err
	}

	before := t.records[slot].tup
	for _, idx := range t.indexes {
		key, err := before.GetField(idx.ColumnIndex)
		if err != nil {
			return err
		}
		idx.Delete(key, *rid)
	}

	t.records[slot].live = false
	tx.LogDelete(t, rid, before)
	return nil
}

// FetchRecord returns the live row at rid under a shared lock.
func (t *Table) FetchRecord(tx *transaction.TransactionContext, rid *tuple.RecordID) (*tuple.Tuple, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	slot := ridToSlot(rid)
	if slot < 0 || slot >= len(t.records) || !t.records[slot].live {
		return nil, nil
	}
	if err := tx.AcquireLock(t.Name(), *rid, transaction.SharedLock); err != nil {
		return nil, err
	}
	return t.records[slot].tup, nil
}

// LiveCount returns the number of live rows.
func (t *Table) LiveCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	count := 0
	for _, rec := range t.records {
		if rec.live {
			count++
		}
	}
	return count
}

// AttachIndex registers a secondary index and backfills it from the
// current table contents.
func (t *Table) AttachIndex(idx *index.Index) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for slot, rec := range t.records {
		if !rec.live {
			continue
		}
		key, err := rec.tup.GetField(idx.ColumnIndex)
		if err != nil {
			return err
		}
		if err := idx.Insert(key, *slotToRID(slot)); err != nil {
			return err
		}
	}

	t.indexes = append(t.indexes, idx)
	return nil
}

// DetachIndex removes a secondary index by name.
func (t *Table) DetachIndex(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, idx := range t.indexes {
		if idx.Name == name {
			t.indexes = append(t.indexes[:i], t.indexes[i+1:]...)
			return true
		}
	}
	return false
}

// Indexes returns the attached secondary indexes.
func (t *Table) Indexes() []*index.Index {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]*index.Index(nil), t.indexes...)
}

// IndexOnColumn returns an index whose key is the given column, if any.
func (t *Table) IndexOnColumn(columnIndex int) *index.Index {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, idx := range t.indexes {
		if idx.ColumnIndex == columnIndex {
			return idx
		}
	}
	return nil
}

// UndoInsert reverses an insert during rollback.
func (t *Table) UndoInsert(rid *tuple.RecordID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	slot := ridToSlot(rid)
	if slot < 0 || slot >= len(t.records) {
		return fmt.Errorf("undo insert: record %s out of range", rid)
	}

	rec := t.records[slot]
	for _, idx := range t.indexes {
		key, err := rec.tup.GetField(idx.ColumnIndex)
		if err != nil {
			return err
		}
		idx.Delete(key, *rid)
	}
	t.records[slot].live = false
	return nil
}

// UndoDelete revives a deleted row during rollback.
func (t *Table) UndoDelete(rid *tuple.RecordID, before *tuple.Tuple) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	slot := ridToSlot(rid)
	if slot < 0 || slot >= len(t.records) {
		return fmt.Errorf("undo delete: record %s out of range", rid)
	}

	t.records[slot] = storedRecord{tup: before, live: true}
	for _, idx := range t.indexes {
		key, err := before.GetField(idx.ColumnIndex)
		if err != nil {
			return err
		}
		if err := idx.Insert(key, *rid); err != nil {
			return err
		}
	}
	return nil
}

// UndoUpdate restores a row's pre-image during rollback.
func (t *Table) UndoUpdate(rid *tuple.RecordID, before *tuple.Tuple) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	slot := ridToSlot(rid)
	if slot < 0 || slot >= len(t.records) {
		return fmt.Errorf("undo update: record %s out of range", rid)
	}

	current := t.records[slot].tup
	for _, idx := range t.indexes {
		oldKey, err := current.GetField(idx.ColumnIndex)
		if err != nil {
			return err
		}
		newKey, err := before.GetField(idx.ColumnIndex)
		if err != nil {
			return err
		}
		if oldKey.Equals(newKey) {
			continue
		}
		idx.Delete(oldKey, *rid)
		if err := idx.Insert(newKey, *rid); err != nil {
			return err
		}
	}
	t.records[slot].tup = before
	return nil
}
