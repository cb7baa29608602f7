// Package registry holds the in-memory authoritative map of live windows.
//
// The Registry is the single source of truth for which windows currently
// exist. It is explicitly constructed and passed by reference to every
// collaborator that needs it; there is no process-wide instance.
//
// Components:
//   - Registry: window CRUD, state mutation, id allocation
//
// Guarantees:
//   - Window ids are unique within one Registry
//   - A record's kind always agrees with its payload variant
//   - Snapshot returns a consistent, id-ordered, non-aliasing copy
//   - Safe for concurrent use from restores and manual UI actions
//
// Example Usage:
//
//	reg := registry.New()
//	rec := reg.Create(types.KindChart, types.DefaultPosition())
//	reg.UpdateState(rec.ID, func(r *types.WindowRecord) {
//	    r.State.AddTag("demo")
//	})
package registry
