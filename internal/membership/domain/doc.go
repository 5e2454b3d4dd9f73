// Package domain defines the membership entities and their business rules:
// user profiles, meetings, participation records, withdrawal restrictions,
// and the chat messages consumed for unread tracking.
//
// Entities are created through constructors that accept an injected clock
// and id generator so behavior stays deterministic under test. Mutation of
// shared state happens in the service package; this package only validates
// and derives.
package domain
