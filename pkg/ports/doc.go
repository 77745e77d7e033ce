/*
Package ports defines the driven ports (interfaces) for the Tendril runtime.

These interfaces decouple the core dispatch loop from external
implementations, allowing the runtime to work with various view layers
and snapshot backends.

# Key Interfaces

  - Renderer: consumes committed states (e.g. a terminal view or an SSE
    fan-out hub).
  - SnapshotStore: persists serialized state snapshots (memory, file,
    Redis, Bolt).
*/
package ports
