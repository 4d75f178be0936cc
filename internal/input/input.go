// Package input defines the OS collaborators the dispatch core consumes as
// opaque functions: reading the foreground window title and injecting a key
// event. Platform implementations live behind build tags; the core never
// calls the OS directly.
package input

// WindowTitleFunc returns the title of the current foreground window.
type WindowTitleFunc func() (string, error)

// KeyPressFunc injects a press of the named key and reports whether the
// injection succeeded. A failed injection must not be treated as success.
type KeyPressFunc func(key string) (bool, error)
