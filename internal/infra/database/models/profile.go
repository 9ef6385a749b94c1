package models

type Profile struct {
	URI         string  `json:"uri" gorm:"primaryKey;type:text"`
	Creator     string  `json:"creator" gorm:"type:text;not null;index"`
	DisplayName string  `json:"displayName" gorm:"type:text;not null"`
	Description *string `json:"description" gorm:"type:text"`
	IndexedAt   string  `json:"indexedAt" gorm:"type:text;not null"`
}

type ProfileBadge struct {
	ProfileURI string `json:"profileUri" gorm:"primaryKey;type:text"`
	BadgeURI   string `json:"badgeUri" gorm:"primaryKey;type:text"`
}

type Badge struct {
	URI           string  `json:"uri" gorm:"primaryKey;type:text"`
	Creator       string  `json:"creator" gorm:"type:text;not null;index"`
	Subject       string  `json:"subject" gorm:"type:text;not null;index"`
	AssertionType string  `json:"assertionType" gorm:"type:text;not null"`
	AssertionTag  *string `json:"assertionTag" gorm:"type:text"`
	CreatedAt     string  `json:"createdAt" gorm:"type:text;not null"`
	IndexedAt     string  `json:"indexedAt" gorm:"type:text;not null"`
}
