package users

import "go.mongodb.org/mongo-driver/bson/primitive"

// User is an account record. PasswordHash is a self-describing KDF digest,
// never the plaintext.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserName     string             `bson:"userName" json:"userName"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
}
