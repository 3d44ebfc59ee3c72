package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotLoaded is returned by operations that need a loaded outline.
	ErrNotLoaded = errors.New("no outline loaded")

	// ErrUnbound is returned when a tree node has no syntax binding.
	ErrUnbound = errors.New("node has no syntax binding")
)

// Messages reported by Load for malformed input. They are returned to the
// caller as-is, so they read as sentences.
const msgInvalidDocument = "Invalid YAML document."

func errRecursiveImport(filename string) string {
	return fmt.Sprintf("Cannot recursively import file %s.", filename)
}

func errAlreadyIncluded(filename string) string {
	return fmt.Sprintf("File %s is already included.", filename)
}

func errNotYAML(filename string) string {
	return fmt.Sprintf("File %s is not a YAML file.", filename)
}

func errMissingFile(filename string) string {
	return fmt.Sprintf("File %s does not exist.", filename)
}

func errInvalidContent(filename string) string {
	return fmt.Sprintf("File %s has an invalid content.", filename)
}

const msgNoText = "A note does not have any text."
