/*
Package domain contains the core domain models for the Stator coordinator.

It defines the fundamental entities of state persistence, such as the State
label, the outcome of a durable write, and the Document record. This package
is kept pure and free of I/O or persistence concerns, following Hexagonal
Architecture principles.

# Key Entities

  - State: An opaque string label drawn from the FSM's declared state set.
  - WriteOutcome: The result of a durable write (committed or rolled back).
  - Document: A map-backed record implementation usable with any store adapter.
  - Hooks: Optional lifecycle callbacks fired around coordinator operations.
*/
package domain
