package sandbox

import (
	"encoding/json"
	"os"
)

// WriteResult serializes status as pretty-printed JSON to path, or to
// stdout when path is empty, with exactly one terminal newline. See
// spec.md §4.6: field names are fixed by Status's json tags.
func WriteResult(status Status, path string) error {
	buf, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return serializationErr("encode status", err)
	}

	buf = append(buf, '\n')

	if path == "" {
		if _, err := os.Stdout.Write(buf); err != nil {
			return ioErr("write result to stdout", err)
		}
		return nil
	}

	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return ioErr("write result to "+path, err)
	}

	return nil
}
