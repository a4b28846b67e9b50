package migrations

import _ "embed"

//go:embed 0001_create_topics.sql
var createTopicsSQL string

func init() {
	register("2024112201", createTopicsSQL, "topics")
}
