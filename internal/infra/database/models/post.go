package models

type Post struct {
	URI         string  `json:"uri" gorm:"primaryKey;type:text"`
	Creator     string  `json:"creator" gorm:"type:text;not null;index"`
	Text        string  `json:"text" gorm:"type:text;not null"`
	ReplyRoot   *string `json:"replyRoot" gorm:"type:text;index"`
	ReplyParent *string `json:"replyParent" gorm:"type:text;index"`
	CreatedAt   string  `json:"createdAt" gorm:"type:text;not null"`
	IndexedAt   string  `json:"indexedAt" gorm:"type:text;not null;index"`
}

type PostEntity struct {
	ID         int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	PostURI    string `json:"postUri" gorm:"type:text;not null;index"`
	StartIndex int64  `json:"startIndex"`
	EndIndex   int64  `json:"endIndex"`
	Type       string `json:"type" gorm:"type:text;not null"`
	Value      string `json:"value" gorm:"type:text;not null"`
}
