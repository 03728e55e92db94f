package models

// FileRef is an uploaded object as clients send it back when attaching it.
type FileRef struct {
	FileName string `json:"file_name"`
	FileURL  string `json:"file_url"`
	FileSize int64  `json:"file_size"`
	FileType string `json:"file_type"`
}

// MaxFileSize bounds a single upload.
const MaxFileSize = 25 * 1024 * 1024
