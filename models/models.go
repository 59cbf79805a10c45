// Package models holds the gorm entities persisted by the blog.
package models

// All returns every model in migration order.
func All() []interface{} {
	return []interface{}{&User{}, &Post{}, &Comment{}}
}
