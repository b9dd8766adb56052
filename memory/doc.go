// Package memory contains concrete core.MemoryStore implementations. The
// store interface and SearchResult type reside in the core package; depend on
// core.MemoryStore in calling code and select an implementation at wiring
// time. This keeps domain contracts centralized while allowing pluggable
// backends (vector databases, embedding indexes) without dependency cycles.
package memory
