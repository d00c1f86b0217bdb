// Package docid derives the fixed-width identifiers used for documents and
// their versions.
//
// IDs are deterministic from (content reference, caller identity, timestamp,
// creation counter) via SHA-256, so two uploads can only collide if every
// input matches, including the registry-wide monotonic counter, which never
// repeats. The registry still checks for an existing row before inserting
// and rejects on collision.
//
// Version IDs use the same derivation with the new version number standing
// in for the creation counter.
package docid
