// Package fixtures provides test data factories for the PlanTogether API.
//
// The fixtures package contains factory functions for creating test data
// with sensible defaults and optional customization.
//
// # Factory Pattern
//
// Create a factory with a database connection:
//
//	f := fixtures.New(testDB)
//
// # Creating Test Data
//
// Factory methods create domain entities:
//
//	user := f.CreateUser(t)                 // Default user
//	admin := f.CreateAdmin(t)               // Admin user
//	event := f.CreateEvent(t, admin)        // Event hosted by admin
//	f.CreateRSVP(t, event, user, model.RSVPStatusGoing)
//
// # Customization
//
// Use option functions for customization:
//
//	event := f.CreateEvent(t, admin, WithEventPrivacy(model.EventPrivacyPrivate))
//	event := f.CreateEvent(t, admin, WithDateOptions("2026-09-01T18:00:00Z"))
//
// # Random Data
//
// Unique identifiers are generated automatically:
//
//	user1 := f.CreateUser(t) // user_abc123@test.local
//	user2 := f.CreateUser(t) // user_def456@test.local
//
// # Cleanup
//
// Test data is cleaned up when the test database is closed.
package fixtures
