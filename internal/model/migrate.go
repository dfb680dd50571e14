package model

// All returns every model that has a table, in migration order.
func All() []any {
	return []any{&User{}, &Group{}, &Post{}, &PostOutbox{}}
}
