// Package catalog tracks the latest published snapshot per index name.
//
// A process that periodically saves snapshots to a blob store publishes
// each new blob key through a Catalog; reloading processes resolve the
// current key through the same catalog instead of listing the store.
// The DynamoDB implementation uses conditional writes so that racing
// publishers fail loudly rather than losing a pointer update.
package catalog
