// internal/model/subscriber.go
package model

type Subscriber struct {
	ID       int    `db:"id" json:"id"`
	Phone    string `db:"phone" json:"phone"`
	Category string `db:"category" json:"category"`
	Group    string `db:"group_name" json:"group"`
}
