/*
Package ports defines the driven ports (interfaces) of the rapport engine.

These interfaces decouple the interpreter from external implementations, allowing
it to work with various storage backends, graph sources and command hosts.

# Key Interfaces

  - GraphLoader: loads raw node definitions (YAML file, Loam, Memory).
  - SessionStore: persists and loads per-user sessions.
  - DistributedLocker: serialises access to one user across replicas.
  - CommandExecutor: runs the side effects behind command options.
*/
package ports
