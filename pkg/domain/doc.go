/*
Package domain contains the core domain models of the design-support coordinator.

It defines the conversation context the dispatcher reads, the events it consumes, the
action records it emits, and the caller-side applier that turns those records into
context mutations. This package is kept pure and free of external dependencies like
I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Mode: the single top-level operating state (INLINE, MICRO_CHECKPOINT, NUDGE,
    DESIGN_SESSION, DESIGN_BRANCH, BRANCH_MERGE).
  - Phase: the four ordered design phases (DISCOVER, DEFINE, DEVELOP, VERIFY).
  - Event: a tagged record fed to the dispatcher (commands, passive triggers, replies).
  - Context: the per-conversation aggregate (step counter, cooldowns, iteration counts,
    design-session and branch sub-states, preferences).
  - TransitionResult: the new mode, an optional prompt and the ordered action records.
  - Action: a description of a side-effect the host must perform.
*/
package domain
