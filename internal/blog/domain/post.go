package domain

import "time"

type Post struct {
	ID        int64
	Title     string
	Content   string
	CreatedAt time.Time
	UserID    int64
	Author    Author
}

// Author is the slice of the owning user every post listing displays.
type Author struct {
	ID        int64
	Username  string
	ImageFile string
}
