// Package store defines the [Store] interface for throttling state backends
// and provides three implementations:
//
//   - [SQLiteStore]: persistent state in a SQLite database file.
//   - [MemoryStore]: fast, in-memory state that is lost on restart.
//   - [TieredStore]: an in-memory read cache in front of a persistent store.
//
// The SQLite backend expects the tables to exist already; [InitSchema]
// creates them for tools and tests.
//
// Custom backends can be created by implementing the [Store] interface.
package store
