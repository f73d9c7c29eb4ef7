// Package config loads and validates the plugin configuration file.
//
// The file is JSON with a strict schema: unknown fields are rejected so a
// typo in an operator's config fails the load instead of being silently
// ignored. Numeric limits accept human-friendly spellings — max_bytes takes
// sizes like "15GiB" and max_messages takes underscore-separated integers
// like "2_097_152" in addition to plain JSON numbers.
//
// Load distinguishes an unreadable file (ErrUnreadable) from content that
// fails schema or semantic validation (ErrInvalid); both are fatal to the
// plugin load.
//
// Example:
//
//	cfg, err := config.Load("/etc/richat/plugin.json")
//	if err != nil {
//	    return err // plugin does not start
//	}
package config
