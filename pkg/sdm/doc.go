/*
Package sdm implements the LwM2M Server Data Model engine: the
in-memory Object/Instance/Resource/Resource-Instance registry plus the
transactional, operation-oriented state machine that drives Read,
Discover, Bootstrap-Discover, Write, Create, Delete, Execute, Register,
Read-Composite, and the Observe/Write-Attributes notification
subsystem.

The engine is single-threaded and non-reentrant: at most one operation
is in flight against a Registry at a time, enforced by an in-progress
flag flipped only by Begin/End. It holds no goroutines and starts no
timers; NotificationTick must be driven by a caller-owned loop. It also
makes no logging or metrics calls — pkg/dispatch and pkg/metrics own
those concerns from outside the engine boundary.

The wire codec, the CoAP transport, and DTLS/certificate handling are
out of scope: pkg/dispatch bridges this engine to a caller-supplied
codec.
*/
package sdm
