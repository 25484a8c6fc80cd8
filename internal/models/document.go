package models

// UploadedArtifact is a transient upload stored for the duration of one request.
type UploadedArtifact struct {
	ID           string `json:"id"`
	StoragePath  string `json:"storagePath"`
	OriginalName string `json:"originalName"`
	SizeBytes    int64  `json:"sizeBytes"`
}

// DocumentPage is the cleaned text of one page of an extracted document.
type DocumentPage struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}
