package locmirror

// Store is the filesystem boundary of a mirror run.
type Store interface {
	// Exists reports whether a regular file is saved at path.
	// Directories never count as saved files.
	Exists(path string) (bool, error)

	// Read returns the bytes saved at path.
	Read(path string) ([]byte, error)

	// Write saves body at path, creating parent directories as needed.
	Write(path string, body []byte) error
}

// Admitter records which LocalPaths have been scheduled in a run.
type Admitter interface {
	// TryAdmit returns true exactly once per distinct path.
	TryAdmit(path string) bool
}
