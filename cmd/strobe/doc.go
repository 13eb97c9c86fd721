// Command strobe is the operator CLI for the strobe daemon: booth status,
// pair listings, capture and slideshow control, and retention cleanup.
package main
