package notes

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Note is a Markdown note owned by a single user. HTML is always the
// rendered form of Text; every write path recomputes it server-side.
type Note struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"userId" json:"-"`
	Title      string             `bson:"title" json:"title"`
	Text       string             `bson:"text" json:"text"`
	HTML       string             `bson:"html" json:"html"`
	Created    time.Time          `bson:"created" json:"created"`
	IsArchived bool               `bson:"isArchived" json:"isArchived"`
}

// NoteInput carries the client-editable fields of a note. Any html the
// client sends is ignored.
type NoteInput struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}
