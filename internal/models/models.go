package models

import "time"

// Confession is a single anonymously submitted post.
//
// Score starts at 1 (the submitter's implicit upvote) and moves by one
// per accepted vote. Archived confessions stay in the table but are
// hidden from every public view; only an admin edit can bring one back.
type Confession struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Text      string    `gorm:"not null" json:"text"`
	Score     int       `gorm:"not null;default:1" json:"score"`
	Archived  bool      `gorm:"not null;default:false" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	// Submitter metadata, captured once at creation for moderation.
	// Never rendered on public views.
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

// TableName keeps the table name stable across gorm naming changes.
func (Confession) TableName() string { return "confessions" }
