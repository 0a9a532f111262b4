/*
Package session serializes the events of each user and keeps their conversation durable.

The Manager owns one refcounted lock per user. While the lock is held it can hydrate
the in-memory state.Store from a ports.SessionStore backend and write the snapshot back
once the handler returns. An optional ports.DistributedLocker extends the per-user
serialization across replicas that share a backend.
*/
package session
