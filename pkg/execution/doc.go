// Package execution implements the physical operators of the query
// engine. Operators are pull-based iterators composed into a tree: the
// driver repeatedly asks the root for the next tuple and each operator
// pulls from its children in turn. Leaves read tables (sequentially or
// through an index); interior nodes filter, project, join, aggregate,
// sort, or apply side effects.
//
// Every operator satisfies iterator.DbIterator. Exhaustion is sticky,
// Close is idempotent, and no operator keeps a reference to a child's
// tuple across calls.
package execution
