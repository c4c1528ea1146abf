/*
Package ports defines the driven ports (interfaces) of the design-support coordinator.

These interfaces decouple the core logic from external implementations, allowing
the coordinator to be served over several transports and backed by several stores.

# Key Interfaces

  - Coordinator: the stateless engine used by the runner and transport adapters.
  - ContextStore: Responsible for persisting and loading conversation contexts.
  - DistributedLocker: Provides distributed locking for handling concurrent session access.
*/
package ports
