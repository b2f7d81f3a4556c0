package enroll

import "database/sql"

// TimeLayout is the storage format for created_at: UTC, second precision.
const TimeLayout = "2006-01-02T15:04:05"

// Enrollment is one accepted application. Rows are append-only; there is no
// update or delete path.
type Enrollment struct {
	ID         int64          `db:"id"`
	ChildFull  string         `db:"child_full"`
	AgeGroup   string         `db:"age_group"`
	Phone      sql.NullString `db:"phone"`
	TGUserID   sql.NullInt64  `db:"tg_user_id"`
	TGUsername sql.NullString `db:"tg_username"`
	CreatedAt  string         `db:"created_at"`
}

// Request carries the fields collected by the dialogue for admission.
type Request struct {
	ChildFull string
	AgeGroup  string
	Phone     string
	UserID    int64
	Username  string
}
