/*
Package ports defines the driven ports (interfaces) for the Stator coordinator.

These interfaces decouple the state-write protocol from external
implementations, allowing the coordinator to work with any record shape and
any storage backend.

# Key Interfaces

  - Record: The entity whose state field the coordinator mediates.
  - DocumentStore: Responsible for durably persisting a record.
  - InitialStateSupplier: Computes the FSM's designated initial state.
  - StateFinder: Optional query capability backing state scopes.
  - DistributedLocker: Provides distributed locking for handling concurrent
    record access across replicas.
*/
package ports
