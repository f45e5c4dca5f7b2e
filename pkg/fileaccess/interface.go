// Package fileaccess abstracts where run outputs are written so the same code can
// target a local results directory or an S3 bucket.
package fileaccess

// FileAccess reads and writes objects addressed by a root and a relative path.
// For the local filesystem the root is a directory; for S3 it is the bucket.
type FileAccess interface {
	ListObjects(root string, prefix string) ([]string, error)

	ReadObject(root string, path string) ([]byte, error)
	WriteObject(root string, path string, data []byte) error

	ReadJSON(root string, path string, itemsPtr interface{}, emptyIfNotFound bool) error
	WriteJSON(root string, path string, itemsPtr interface{}) error

	// MakeDir ensures a directory exists. Object stores have no directories, so
	// implementations may treat it as a no-op.
	MakeDir(root string, path string) error

	IsNotFoundError(err error) bool
}

// jsonIndent is the indent used for pretty-printed JSON outputs
const jsonIndent = "    "
