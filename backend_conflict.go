//go:build !js && ((badger && (leveldb || bolt || sqlite)) || (leveldb && (bolt || sqlite)) || (bolt && sqlite))

package pkv

// Only one storage engine can be compiled in. This fails the build with a
// readable message when more than one engine build tag is set.
var _ int = "pkv: the badger, leveldb, bolt and sqlite build tags are mutually exclusive"
