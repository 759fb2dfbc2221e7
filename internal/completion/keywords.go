// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

package completion

// Keywords seeds every index so SQL words complete before the first refresh.
var Keywords = []string{
	"ALL", "ALTER", "AND", "ANALYZE", "AS", "ASC", "BETWEEN", "BIGINT", "BOOLEAN",
	"BY", "CASE", "CAST", "CHAR", "COLUMN", "COLUMNS", "COUNT", "CREATE", "CROSS",
	"CURRENT_DATE", "CURRENT_TIMESTAMP", "DATABASE", "DATABASES", "DATE", "DECIMAL",
	"DELETE", "DESC", "DESCRIBE", "DISTINCT", "DOUBLE", "DROP", "ELSE", "END",
	"EXISTS", "EXPLAIN", "EXTERNAL", "FALSE", "FROM", "FULL", "FUNCTIONS", "GROUP",
	"HAVING", "IF", "IN", "INNER", "INSERT", "INT", "INTEGER", "INTERVAL", "INTO",
	"IS", "JOIN", "LEFT", "LIKE", "LIMIT", "LOCATION", "MSCK", "NOT", "NULL", "OFFSET",
	"ON", "OR", "ORDER", "OUTER", "OVER", "PARTITION", "PARTITIONED", "PARTITIONS",
	"REPAIR", "RIGHT", "ROW", "SCHEMA", "SCHEMAS", "SELECT", "SET", "SHOW",
	"SMALLINT", "STRING", "TABLE", "TABLES", "TBLPROPERTIES", "THEN", "TIMESTAMP",
	"TINYINT", "TRUE", "TRUNCATE", "UNION", "UNLOAD", "UPDATE", "USE", "USING",
	"VALUES", "VARCHAR", "VIEW", "VIEWS", "WHEN", "WHERE", "WITH",
}

// reserved words must be quoted when used as identifiers.
var reserved = func() map[string]struct{} {
	words := []string{
		"all", "alter", "and", "as", "between", "by", "case", "cast", "column",
		"create", "cross", "current_date", "current_timestamp", "delete", "describe",
		"distinct", "drop", "else", "end", "exists", "false", "from", "full", "group",
		"having", "in", "inner", "insert", "interval", "into", "is", "join", "left",
		"like", "limit", "not", "null", "on", "or", "order", "outer", "right", "select",
		"table", "then", "true", "union", "using", "values", "when", "where", "with",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()
