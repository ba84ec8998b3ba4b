package model

import "time"

// Document is the metadata record of one ingested upload.
// JSON names follow the persisted schema so listings can be consumed as-is.
type Document struct {
	ID           int64     `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	UUID         string    `json:"uuid"`
	UploadedAt   time.Time `json:"upload_date"`
	StoragePath  string    `json:"file_path"`
	Size         int64     `json:"size"`
	MimeType     string    `json:"mimetype"`
}
