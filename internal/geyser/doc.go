// Package geyser defines the host-facing plugin contract: the callback
// interface the validator invokes and the version-tagged payload structures
// it passes. Payloads arrive as unions covering every structural version the
// host has ever shipped; this plugin accepts only the newest version of each
// and reports anything older as an UnsupportedVersionError instead of
// guessing at field layouts.
package geyser
