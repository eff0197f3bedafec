package catalog

import (
	"sort"
	"strings"
	"sync"

	"minidb/pkg/catalog/schema"
	"minidb/pkg/errs"
	"minidb/pkg/storage/heap"
	"minidb/pkg/storage/index"
)

// Catalog is the in-memory table and index registry. Tables outlive any
// single query; operators borrow them and never own them.
type Catalog struct {
	mu      sync.RWMutex
	tables  map[string]*heap.Table
	indexes map[string]string // index name -> owning table name
}

func NewCatalog() *Catalog {
	return &Catalog{
		tables:  make(map[string]*heap.Table),
		indexes: make(map[string]string),
	}
}

// CreateTable registers a new heap table for the schema.
func (c *Catalog) CreateTable(sch *schema.Schema) (*heap.Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := strings.ToLower(sch.TableName)
	if _, exists := c.tables[key]; exists {
		return nil, errs.New(errs.CategoryUser, errs.CodeInvalidArgument,
			"table %s already exists", sch.TableName)
	}

	table := heap.NewTable(sch)
	c.tables[key] = table
	return table, nil
}

// GetTable looks up a table by name.
func (c *Catalog) GetTable(name string) (*heap.Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	table, ok := c.tables[strings.ToLower(name)]
	if !ok {
		return nil, errs.New(errs.CategoryUser, errs.CodeSchemaTableNotExist,
			"table %s does not exist", name)
	}
	return table, nil
}

// DropTable removes a table and every index attached to it.
func (c *Catalog) DropTable(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := strings.ToLower(name)
	table, ok := c.tables[key]
	if !ok {
		return errs.New(errs.CategoryUser, errs.CodeSchemaTableNotExist,
			"table %s does not exist", name)
	}

	for _, idx := range table.Indexes() {
		delete(c.indexes, strings.ToLower(idx.Name))
	}
	delete(c.tables, key)
	return nil
}

// CreateIndex builds a secondary index over one column of a table and
// backfills it from the existing rows.
func (c *Catalog) CreateIndex(indexName, tableName, columnName string, unique bool) (*index.Index, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.indexes[strings.ToLower(indexName)]; exists {
		return nil, errs.New(errs.CategoryUser, errs.CodeInvalidArgument,
			"index %s already exists", indexName)
	}

	table, ok := c.tables[strings.ToLower(tableName)]
	if !ok {
		return nil, errs.New(errs.CategoryUser, errs.CodeSchemaTableNotExist,
			"table %s does not exist", tableName)
	}

	colIdx, _, err := table.Schema().FindColumn(columnName)
	if err != nil {
		return nil, errs.Wrap(err, errs.CategoryUser, errs.CodeSchemaFieldNotExist,
			"cannot index %s.%s", tableName, columnName)
	}

	idx := index.NewIndex(indexName, table.Name(), columnName, colIdx, unique)
	if err := table.AttachIndex(idx); err != nil {
		return nil, err
	}

	c.indexes[strings.ToLower(indexName)] = strings.ToLower(tableName)
	return idx, nil
}

// DropIndex removes an index by name.
func (c *Catalog) DropIndex(indexName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := strings.ToLower(indexName)
	tableKey, ok := c.indexes[key]
	if !ok {
		return errs.New(errs.CategoryUser, errs.CodeInvalidArgument,
			"index %s does not exist", indexName)
	}

	if table, ok := c.tables[tableKey]; ok {
		table.DetachIndex(indexName)
	}
	delete(c.indexes, key)
	return nil
}

// TableNames returns every table name in sorted order.
func (c *Catalog) TableNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.tables))
	for _, table := range c.tables {
		names = append(names, table.Name())
	}
	sort.Strings(names)
	return names
}
