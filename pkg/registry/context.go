package registry

import (
	"minidb/pkg/catalog"
	"minidb/pkg/concurrency/transaction"
)

// DatabaseContext holds the shared components every session needs: the
// catalog and the transaction registry. It is the single source of
// truth instead of package-level singletons.
type DatabaseContext struct {
	cat        *catalog.Catalog
	txRegistry *transaction.TransactionRegistry
}

// NewDatabaseContext creates a context with a fresh catalog and
// transaction registry.
func NewDatabaseContext() *DatabaseContext {
	return &DatabaseContext{
		cat:        catalog.NewCatalog(),
		txRegistry: transaction.NewTransactionRegistry(),
	}
}

func (ctx *DatabaseContext) Catalog() *catalog.Catalog {
	return ctx.cat
}

func (ctx *DatabaseContext) TxRegistry() *transaction.TransactionRegistry {
	return ctx.txRegistry
}
