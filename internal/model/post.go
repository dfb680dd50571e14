package model

import "time"

// PreviewLength is the number of characters of Text shown by String.
const PreviewLength = 15

type Post struct {
	ID       uint64    `gorm:"primaryKey;index:idx_pub_id,priority:2,sort:desc"`
	Text     string    `gorm:"type:text;not null"`
	PubDate  time.Time `gorm:"autoCreateTime;not null;index:idx_pub_id,priority:1,sort:desc;index:idx_author_pub,priority:2;index:idx_group_pub,priority:2"`
	AuthorID uint64    `gorm:"not null;index:idx_author_pub,priority:1"`
	Author   User      `gorm:"foreignKey:AuthorID"`
	GroupID  *uint64   `gorm:"index:idx_group_pub,priority:1"`
	Group    *Group    `gorm:"foreignKey:GroupID"`
	Image    string    `gorm:"size:255"`
}

// String always appends the ellipsis, even for short texts.
func (p Post) String() string {
	runes := []rune(p.Text)
	if len(runes) > PreviewLength {
		runes = runes[:PreviewLength]
	}
	return string(runes) + "..."
}

func (p Post) IsAuthor(u *User) bool {
	return u != nil && u.ID == p.AuthorID
}
