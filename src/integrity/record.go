package integrity

import "os"

// FileRecord is the last observed state of one tracked file. Fields are
// declared in alphabetical order so the marshaled state file is fully
// key-sorted and byte-reproducible.
type FileRecord struct {
	Mtime  float64 `json:"mtime"`
	Path   string  `json:"path"`
	SHA256 string  `json:"sha256"`
	Size   int64   `json:"size"`
}

// NewFileRecord stats and hashes path. The path must already be canonical.
func NewFileRecord(path string, chunkSize int) (FileRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileRecord{}, err
	}
	sum, err := HashFile(path, chunkSize)
	if err != nil {
		return FileRecord{}, err
	}
	return FileRecord{
		Mtime:  float64(info.ModTime().UnixNano()) / 1e9,
		Path:   path,
		SHA256: sum,
		Size:   info.Size(),
	}, nil
}
