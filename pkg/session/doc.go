/*
Package session owns per-user session access.

The Manager serialises every read-modify-write of one user's session behind a reference
counted mutex (plus an optional distributed lock across replicas), while different users
proceed in parallel. Writes are retried with backoff; a write that still fails stays in a
pending buffer, becomes the base for that user's next update and is flushed later.
*/
package session
