// Package diskio is the local-file-utils collaborator of spec §6 ("create
// working directory; write block; read block; delete file"), implementing
// spill writes with atomic rename-into-place so a reload or a crash never
// observes a half-written file, grounded on the natefinch/atomic dependency
// carried by calvinalkan-agent-task for the same durable-write concern.
package diskio

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	natomic "github.com/natefinch/atomic"
)

// NewWorkDir creates a per-process unique working directory under base
// (spec §5: "the spill directory is process-wide and is created lazily on
// first spill"), named with a uuid so repeated processes sharing the same
// base directory never collide, grounded on the google/uuid dependency
// carried by FairForge-vaultaire / rknuus-eisenkan.
func NewWorkDir(base string) (string, error) {
	dir := filepath.Join(base, "resultcache-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// PathFor returns the spill file path for a lineage's integer identity
// (spec §4.6/§6: "filenames are <lineage_id> under a per-process unique
// directory").
func PathFor(dir string, id int64) string {
	return filepath.Join(dir, strconv.FormatInt(id, 10))
}

// Write durably writes data to path via a temp-file-then-rename, so a
// concurrent reader of path either sees the old content or the complete new
// content, never a partial write.
func Write(path string, data []byte) error {
	return natomic.WriteFile(path, bytes.NewReader(data))
}

// Read reads back a spill file written by Write.
func Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Remove deletes a spill file after a successful reload.
func Remove(path string) error {
	return os.Remove(path)
}
