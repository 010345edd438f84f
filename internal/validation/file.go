package validation

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// FileValidationError reports an upload rejected before any store write.
type FileValidationError struct {
	Filename string
	Reason   string
}

func (e *FileValidationError) Error() string {
	return fmt.Sprintf("%s is an invalid file type", e.Filename)
}

// CheckFile validates an upload by filename. Media files (image, audio,
// video mimetypes) are always accepted; anything else must carry a
// whitelisted extension.
func CheckFile(filename string, extensionWhitelist map[string]bool) error {
	ext := strings.ToLower(filepath.Ext(filename))

	if mimetype := mime.TypeByExtension(ext); mimetype != "" {
		prefix := strings.SplitN(mimetype, "/", 2)[0]
		if prefix == "image" || prefix == "audio" || prefix == "video" {
			return nil
		}
	}

	if !extensionWhitelist[ext] {
		return &FileValidationError{Filename: filename, Reason: "extension not allowed"}
	}
	return nil
}
