// Package capture drives the photo session lifecycle from countdown through
// reveal and the enforced minimum-display hold. Exactly one session runs at
// a time and every timer is generation guarded, so a cancelled countdown or
// hold can never mutate a later session.
package capture
