// Package booth is the coordinator: it owns the pair store, capture
// machine, slideshow, retention janitor, and notifier, and routes events
// between them and the external camera/stylization collaborators.
package booth
