package models

import "time"

type User struct {
	ID           string    `db:"id" bson:"_id"`
	Email        string    `db:"email" bson:"email"`
	Name         string    `db:"name" bson:"name"`
	PasswordHash string    `db:"password_hash" bson:"password_hash"`
	IsAdmin      bool      `db:"is_admin" bson:"is_admin"`
	Year         string    `db:"year" bson:"year"`
	Semester     string    `db:"semester" bson:"semester"`
	CourseCode   string    `db:"course_code" bson:"course_code"`
	CreatedAt    time.Time `db:"created_at" bson:"created_at"`
}

type AllowlistEntry struct {
	Email      string    `db:"email" bson:"_id"`
	Name       string    `db:"name" bson:"name"`
	Year       string    `db:"year" bson:"year"`
	Semester   string    `db:"semester" bson:"semester"`
	CourseCode string    `db:"course_code" bson:"course_code"`
	DateAdded  time.Time `db:"date_added" bson:"date_added"`
}

type Lesson struct {
	ID          string    `db:"id" bson:"_id"`
	Title       string    `db:"title" bson:"title"`
	Description string    `db:"description" bson:"description"`
	Image       string    `db:"image" bson:"image"`
	Content     string    `db:"content" bson:"content"`
	Order       int       `db:"sort_order" bson:"order"`
	CreatedAt   time.Time `db:"created_at" bson:"created_at"`
}

// LessonPatch carries the fields of a partial lesson update. Nil means untouched.
type LessonPatch struct {
	Title       *string
	Description *string
	Image       *string
	Content     *string
}

type LessonOrder struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}

type Visit struct {
	Timestamp time.Time `db:"visited_at" bson:"timestamp"`
	Duration  float64   `db:"duration_seconds" bson:"duration"`
}

// TimeRecord is the accumulated time a user spent on one lesson.
// Duration always equals the sum of the visit durations.
type TimeRecord struct {
	UserID    string    `db:"user_id" bson:"user_id"`
	LessonID  string    `db:"lesson_id" bson:"lesson_id"`
	Duration  float64   `db:"duration_seconds" bson:"duration"`
	Visits    []Visit   `db:"-" bson:"visits"`
	LastVisit time.Time `db:"last_visit" bson:"last_visit"`
}

type Setting struct {
	Key   string  `db:"key" bson:"_id"`
	Value float64 `db:"value" bson:"value"`
}
