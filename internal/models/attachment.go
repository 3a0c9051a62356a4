package models

import "time"

// Attachment is the metadata of a file uploaded for a case. The bytes live
// in the object store under StoragePath.
type Attachment struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	FormulaireID string    `gorm:"size:36;index;not null" json:"formulaire_id"`
	UserID       uint      `gorm:"index;not null" json:"user_id"`
	OriginalName string    `gorm:"size:255;not null" json:"original_name"`
	StoragePath  string    `gorm:"size:500;not null;uniqueIndex" json:"storage_path"`
	MimeType     string    `gorm:"size:100" json:"mime_type"`
	SizeBytes    int64     `json:"size_bytes"`
}

func (Attachment) TableName() string { return "documents" }

// GetUserID returns the uploader.
func (a *Attachment) GetUserID() uint { return a.UserID }
