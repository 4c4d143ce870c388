// Package decode drives token generation against a compiled
// encoder/decoder graph. The decoder reuses attention key/value
// projections from previous steps through a per-module cache, so each
// step only feeds the newest token.
//
// The package is runtime-agnostic: Encoder and Graph are the seams a
// concrete inference backend plugs into.
package decode
