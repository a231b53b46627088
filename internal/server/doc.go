// Package server implements the realtime core of the relay chat service.
//
// The implementation is organized into specialized files for the room
// registry, sessions, routing, and HTTP handlers to keep the codebase
// maintainable and testable as the project grows.
package server
