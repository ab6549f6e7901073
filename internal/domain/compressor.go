package domain

// Compressor writes a compressed copy of sourcePath to destPath and leaves
// the source in place.
type Compressor interface {
	Compress(sourcePath, destPath string) error
}
