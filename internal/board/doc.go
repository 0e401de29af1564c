// Package board loads board definitions: the columns a board's tasks carry
// and the saved filters defined against them.
//
// A board file may be YAML (.yaml, .yml), CUE (.cue) or JSON with comments
// (.json, .jsonc). CUE files are unified with an embedded schema before
// decoding, so type and shape errors carry source positions. Every format
// goes through the same semantic validation (Validate), which collects all
// problems instead of stopping at the first one.
//
// Filter files hold a list of triples, either as a bare list or under a
// "where" key, in the same formats.
package board
