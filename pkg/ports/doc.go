/*
Package ports defines the driven ports (interfaces) of the todobot conversation engine.

These interfaces decouple the conversation core from external implementations, allowing
the flows to work with various storage engines, session backends and transports.

# Key Interfaces

  - Gateway: durable users and tasks (SQLite, Postgres, Memory).
  - Presenter: delivers replies to a user (HTTP, WebSocket, Console).
  - SessionStore: persists per-user session snapshots (Memory, File, Redis).
  - DistributedLocker: serializes a user's events across replicas.
*/
package ports
