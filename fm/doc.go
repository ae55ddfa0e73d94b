// Package fm implements a file manager over directories of an afero
// filesystem.
//
// Every Root is confined to its directory: paths are always relative to
// the root and parent references never climb above it. A Manager serves
// the roots over HTTP, each one at the manager prefix followed by its
// name, with JSON actions answering {"status":1,"location":"..."} on
// success and {"status":0,"message":"..."} on failure.
package fm
