/*
Package session serializes access to conversation contexts.

A Manager guarantees at most one in-flight turn per conversation: it keeps a
reference-counted mutex per session id inside the process and, when configured
with a ports.DistributedLocker, also holds a lease shared across replicas
while the turn reads, dispatches and writes the context back to the store.
*/
package session
