// Package userstore persists per-user request-throttling state for a
// gateway-like service: a global request counter, and one record per
// (hashed user, service) pair holding a request count, a blocked flag and
// the time of the last request.
//
// The package records state only. Deciding whether a user should be
// blocked is left to the caller, which typically, per request:
//
//	u, err := db.GetUser(ctx, hash, "smtp")
//	if u == nil {
//		err = db.AddUser(ctx, hash, "smtp", false)
//	} else {
//		// apply throttling policy to u.Times, u.Blocked, u.LastRequest
//		err = db.UpdateUser(ctx, hash, "smtp", u.Times+1, blocked)
//	}
//	err = db.RecordRequest(ctx)
//
// # Backends
//
// [DB] opens a SQLite database file by default. Other [store.Store]
// backends (in-memory, tiered, Redis) can be supplied with [WithStore].
// The SQLite tables must exist before use; [store.InitSchema] creates them.
//
// # Errors
//
// Every failure is reported as a [*StoreError] carrying the backend error.
// No operation retries.
package userstore
