// Package ids defines the small set of opaque identifier types shared
// across the simulation. Entities reference each other only by these
// IDs, never by pointer — spec.md §9's "ID-through-a-map" pattern,
// which keeps lifetimes acyclic and makes delete-during-iteration safe.
package ids

// WormID identifies a Worm for the lifetime of its current life.
type WormID uint64

// PlayerID identifies a Player for the lifetime of their session.
type PlayerID uint64

// FoodID identifies a Food item until consumed.
type FoodID uint64
