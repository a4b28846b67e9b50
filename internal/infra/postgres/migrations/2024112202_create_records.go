package migrations

import _ "embed"

//go:embed 0002_create_records.sql
var createRecordsSQL string

func init() {
	register("2024112202", createRecordsSQL, "records")
}
