// Package api is the control and status surface for presentation clients:
// JSON endpoints for booth operations and a websocket hub that pushes
// capture and slideshow state changes as they happen.
package api
