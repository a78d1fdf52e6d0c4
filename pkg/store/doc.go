// Package store defines the persistence contract for the authorization
// engine.
//
// The engine in pkg/bouncer never talks to a database directly. It works
// against the Store interface defined here, which has two implementations:
//
//   - pkg/store/gorm: PostgreSQL via GORM (production)
//   - pkg/store/memory: mutex-guarded maps (tests, embedding without a DB)
//
// # Records
//
//   - Ability: a named permission, unique by (name, scope)
//   - Role: a named bundle of grants, unique by (name, scope)
//   - Grant: (entity, ability, resource, forbidden), unique by everything but forbidden
//   - Assignment: (role, principal)
//
// # Errors
//
// Implementations return ErrNotFound and ErrDuplicateName for the expected
// conditions and wrap everything else in *StorageError:
//
//	if err := st.DeleteAbility(ctx, id); err != nil {
//	    if errors.Is(err, store.ErrNotFound) {
//	        // nothing to delete
//	    }
//	}
package store
