package models

type Like struct {
	URI       string `json:"uri" gorm:"primaryKey;type:text"`
	Creator   string `json:"creator" gorm:"type:text;not null;index"`
	Subject   string `json:"subject" gorm:"type:text;not null;index"`
	CreatedAt string `json:"createdAt" gorm:"type:text;not null"`
	IndexedAt string `json:"indexedAt" gorm:"type:text;not null"`
}

type Repost struct {
	URI       string `json:"uri" gorm:"primaryKey;type:text"`
	Creator   string `json:"creator" gorm:"type:text;not null;index"`
	Subject   string `json:"subject" gorm:"type:text;not null;index"`
	CreatedAt string `json:"createdAt" gorm:"type:text;not null"`
	IndexedAt string `json:"indexedAt" gorm:"type:text;not null;index"`
}

// Follow.Subject is a did, not a record uri.
type Follow struct {
	URI       string `json:"uri" gorm:"primaryKey;type:text"`
	Creator   string `json:"creator" gorm:"type:text;not null;index"`
	Subject   string `json:"subject" gorm:"type:text;not null;index"`
	CreatedAt string `json:"createdAt" gorm:"type:text;not null"`
	IndexedAt string `json:"indexedAt" gorm:"type:text;not null"`
}
