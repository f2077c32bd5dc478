/*
Package persistence provides BoltDB-backed snapshot storage for the
Security Object's instance data.

The engine itself is purely in-memory (pkg/sdm keeps every Object's
data in process, guarded by its transaction lifecycle). persistence is
the separate collaborator that stores the Security Object's data so
bootstrap credentials survive a restart: the caller passes the map
returned by Security.Snapshot to SaveSecurity. The Security Object's
own operation_end hook does not call this package.

# Architecture

BoltSnapshotStore mirrors the teacher's BoltStore: a single BoltDB file
opened with bolt.Open, one bucket created up front, every read wrapped
in db.View and every write in db.Update, with instance data marshaled
to JSON. Unlike the teacher's nine-bucket, nine-entity-type store, this
package persists exactly one thing: the map of Security instance data
keyed by instance ID, because the Security Object is the only one
spec-mandated to survive across restarts (the rest of a deployment's
Objects are reconstructed from the device's own state at boot).

# Usage

	store, err := persistence.NewBoltSnapshotStore("/var/lib/sdm")
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	err = store.SaveSecurity(sec.Snapshot())
	snap, err := store.LoadSecurity()
*/
package persistence
