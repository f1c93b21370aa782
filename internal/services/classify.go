package services

import (
	"path"
	"strings"

	"mediashelf/internal/models"
)

var extensionTypes = map[string]models.FileType{
	"png":  models.FileTypeImage,
	"jpeg": models.FileTypeImage,
	"jpg":  models.FileTypeImage,
	"gif":  models.FileTypeImage,
	"webp": models.FileTypeImage,
	"bmp":  models.FileTypeImage,
	"mp4":  models.FileTypeVideo,
	"mpg":  models.FileTypeVideo,
	"webm": models.FileTypeVideo,
	"mkv":  models.FileTypeVideo,
	"avi":  models.FileTypeVideo,
	"mts":  models.FileTypeVideo,
	"flv":  models.FileTypeVideo,
	"m3u8": models.FileTypeVideo,
}

// ClassifyEntry derives the file type of a scanned entry. Videos smaller than
// shortVideoMax bytes are short videos; a zero limit disables that split.
func ClassifyEntry(entry models.ScanEntry, shortVideoMax int64) models.FileType {
	if entry.IsDir {
		return models.FileTypeFolder
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(entry.RelPath), "."))
	fileType, ok := extensionTypes[ext]
	if !ok {
		return models.FileTypeUnknown
	}
	if fileType == models.FileTypeVideo && shortVideoMax > 0 && entry.Size < shortVideoMax {
		return models.FileTypeVideoShort
	}
	return fileType
}
