package protocol

import "errors"

// Error taxonomy for the consumer loop (spec §7). None of these are
// fatal: internal/encounter logs and skips the offending packet for
// every one of them; the loop keeps running.
var (
	// ErrParseFailure marks an undecodable packet body.
	ErrParseFailure = errors.New("packet: undecodable payload")

	// ErrInvalidDamage marks a damage event the DecryptHook rejected.
	ErrInvalidDamage = errors.New("packet: damage decryption rejected")

	// ErrMissingReferent marks a damage event whose source/target is
	// not in the entity map after the mandatory upsert.
	ErrMissingReferent = errors.New("packet: damage source/target not found")

	// ErrStaticDataMiss marks a lookup miss in a static data table;
	// callers degrade (id-as-name, empty icon) rather than failing.
	ErrStaticDataMiss = errors.New("data: lookup miss")
)
