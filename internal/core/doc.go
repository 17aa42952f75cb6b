// Package core provides the bronze to silver cleaning pipeline.
//
// The package holds the domain logic independent of storage and transport.
// The cmd binary, the HTTP surface and tests all drive it through the same
// [Pipeline] with different [Source] and [Store] implementations.
//
// # Architecture
//
//   - Entity Definitions: registered via the registry, each entity carries its
//     bronze and silver column lists and a pure transform.
//   - Loader: runs one transform and write with error isolation. A failure is
//     returned as a [LoadResult] and appended to the [ErrorSink].
//   - Pipeline: generates a run id, loads every entity in a fixed order and
//     records the [RunSummary].
//
// # Entity Registry
//
// Entities are registered at init time using [Register]:
//
//	core.Register(core.EntityDefinition{
//	    Info: core.EntityInfo{Name: "erp_loc_a101", System: "ERP", Order: 50},
//	    Transform: transformLocations,
//	})
//
// # Full Refresh
//
// Every run replaces the whole silver table of every entity. Stores stage
// the cleaned batch and swap it in, so a failed entity keeps its previous
// contents and readers never observe an empty table mid-load.
//
// # Error Handling
//
// Technical errors are mapped to codes using [MapError]; the code is stored
// with each error log entry. Errors wrapping [ErrStoreUnavailable] or a
// cancelled context stop the run, every other failure is confined to its
// entity.
package core
