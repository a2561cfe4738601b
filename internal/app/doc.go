// Package app composes the game engine and the board service over a board
// store. Transports live in httpapi and process lifecycle in runtime.
package app
