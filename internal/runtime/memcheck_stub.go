//go:build !linux

package runtime

// Non-linux platforms get a fixed optimistic estimate; the classifier
// treats 2 GiB as nominal pressure.
func availableMemoryBytes() (int64, error) {
	return 2 << 30, nil
}
