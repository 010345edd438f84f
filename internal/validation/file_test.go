package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var whitelist = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".txt": true, ".csv": true,
}

func TestCheckFileWhitelistedExtensions(t *testing.T) {
	assert.NoError(t, CheckFile("report.pdf", whitelist))
	assert.NoError(t, CheckFile("notes.txt", whitelist))
	assert.NoError(t, CheckFile("UPPER.TXT", whitelist))
}

func TestCheckFileMediaAlwaysAccepted(t *testing.T) {
	assert.NoError(t, CheckFile("photo.png", whitelist))
	assert.NoError(t, CheckFile("clip.mp4", whitelist))
	assert.NoError(t, CheckFile("song.mp3", whitelist))
}

func TestCheckFileRejected(t *testing.T) {
	err := CheckFile("malware.exe", whitelist)
	assert.Error(t, err)

	var verr *FileValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, "malware.exe", verr.Filename)

	assert.Error(t, CheckFile("archive.zip", whitelist))
	assert.Error(t, CheckFile("noextension", whitelist))
}
