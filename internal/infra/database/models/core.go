package models

// Record is the generic log: one row per live record, whatever its collection.
type Record struct {
	URI        string `json:"uri" gorm:"primaryKey;type:text"`
	Did        string `json:"did" gorm:"type:text;not null;index:idx_records_repo,priority:1"`
	Collection string `json:"collection" gorm:"type:text;not null;index:idx_records_repo,priority:2"`
	RecordKey  string `json:"recordKey" gorm:"type:text;not null;index:idx_records_repo,priority:3"`
	Raw        string `json:"raw" gorm:"type:text;not null"`
	IndexedAt  string `json:"indexedAt" gorm:"type:text;not null;index"`
	ReceivedAt string `json:"receivedAt" gorm:"type:text;not null"`
}

type RepoRoot struct {
	Did       string `json:"did" gorm:"primaryKey;type:text"`
	Root      string `json:"root" gorm:"type:text;not null"`
	IndexedAt string `json:"indexedAt" gorm:"type:text;not null"`
}

type User struct {
	Did            string `json:"did" gorm:"primaryKey;type:text"`
	Username       string `json:"username" gorm:"type:text;not null;uniqueIndex"`
	Email          string `json:"email" gorm:"type:text;not null;uniqueIndex"`
	Password       string `json:"-" gorm:"type:text;not null"`
	CreatedAt      string `json:"createdAt" gorm:"type:text;not null"`
	LastSeenNotifs string `json:"lastSeenNotifs" gorm:"type:text;not null"`
}

type Notification struct {
	ID            int64   `json:"id" gorm:"primaryKey;autoIncrement"`
	UserDid       string  `json:"userDid" gorm:"type:text;not null;index"`
	RecordURI     string  `json:"recordUri" gorm:"type:text;not null;index"`
	Author        string  `json:"author" gorm:"type:text;not null"`
	Reason        string  `json:"reason" gorm:"type:text;not null"`
	ReasonSubject *string `json:"reasonSubject" gorm:"type:text"`
	IndexedAt     string  `json:"indexedAt" gorm:"type:text;not null;index"`
}
