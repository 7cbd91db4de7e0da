// Package mysql provides the MySQL dialect: translation tables from T-SQL
// and a generator that renders scripts as MySQL stored programs.
// This package is pure Go with no database driver dependencies.
package mysql

// functions maps T-SQL function names to their MySQL spelling. Keys ending
// in "()" replace the whole call.
var functions = map[string]string{
	"GETDATE":          "NOW",
	"GETUTCDATE":       "UTC_TIMESTAMP",
	"SYSDATETIME":      "NOW",
	"ISNULL":           "IFNULL",
	"LEN":              "CHAR_LENGTH",
	"DATALENGTH":       "LENGTH",
	"NEWID":            "UUID",
	"CHARINDEX":        "LOCATE",
	"SCOPE_IDENTITY()": "LAST_INSERT_ID()",
}

// systemVariables maps T-SQL @@ variables to MySQL expressions.
var systemVariables = map[string]string{
	"@@ROWCOUNT":     "ROW_COUNT()",
	"@@IDENTITY":     "LAST_INSERT_ID()",
	"@@FETCH_STATUS": fetchStatus,
}

// dataTypes maps T-SQL data types to MySQL. Full spellings such as
// NVARCHAR(MAX) are matched before bare type names.
var dataTypes = map[string]string{
	"NVARCHAR(MAX)":    "LONGTEXT",
	"VARCHAR(MAX)":     "LONGTEXT",
	"VARBINARY(MAX)":   "LONGBLOB",
	"NVARCHAR":         "VARCHAR",
	"NCHAR":            "CHAR",
	"NTEXT":            "LONGTEXT",
	"TEXT":             "LONGTEXT",
	"IMAGE":            "LONGBLOB",
	"XML":              "LONGTEXT",
	"BIT":              "TINYINT(1)",
	"UNIQUEIDENTIFIER": "CHAR(36)",
	"MONEY":            "DECIMAL(19,4)",
	"SMALLMONEY":       "DECIMAL(10,4)",
	"DATETIME2":        "DATETIME(6)",
	"DATETIMEOFFSET":   "DATETIME(6)",
	"SMALLDATETIME":    "DATETIME",
	"REAL":             "FLOAT",
	"ROWVERSION":       "BINARY(8)",
}

// mysqlReservedWords are words that must be quoted when used as identifiers.
var mysqlReservedWords = []string{
	"accessible", "add", "all", "alter", "analyze", "and", "as", "asc",
	"before", "between", "bigint", "binary", "blob", "both", "by", "call",
	"cascade", "case", "change", "char", "character", "check", "collate",
	"column", "condition", "constraint", "continue", "convert", "create",
	"cross", "cube", "current_date", "current_time", "current_timestamp",
	"current_user", "cursor", "database", "databases", "dec", "decimal",
	"declare", "default", "delayed", "delete", "desc", "describe",
	"distinct", "div", "double", "drop", "each", "else", "elseif",
	"enclosed", "escaped", "except", "exists", "exit", "explain", "false",
	"fetch", "float", "for", "force", "foreign", "from", "fulltext",
	"function", "generated", "get", "grant", "group", "grouping", "groups",
	"having", "if", "ignore", "in", "index", "infile", "inner", "inout",
	"insert", "int", "integer", "intersect", "interval", "into", "is",
	"iterate", "join", "key", "keys", "kill", "lag", "lead", "leading",
	"leave", "left", "like", "limit", "lines", "load", "lock", "long",
	"loop", "match", "mod", "natural", "not", "null", "numeric", "of",
	"on", "option", "or", "order", "out", "outer", "over", "partition",
	"precision", "primary", "procedure", "range", "rank", "read", "real",
	"recursive", "references", "regexp", "release", "rename", "repeat",
	"replace", "require", "restrict", "return", "revoke", "right", "rlike",
	"row", "rows", "schema", "select", "set", "show", "signal", "smallint",
	"spatial", "sql", "sqlexception", "sqlstate", "sqlwarning", "ssl",
	"starting", "straight_join", "system", "table", "terminated", "then",
	"to", "trailing", "trigger", "true", "undo", "union", "unique",
	"unlock", "unsigned", "update", "usage", "use", "using", "values",
	"varchar", "when", "where", "while", "window", "with", "write", "xor",
}

// mysqlKeywords are cased as keywords by the formatter in addition to the
// T-SQL reserved words.
var mysqlKeywords = []string{
	"DO", "ELSEIF", "LEAVE", "ITERATE", "LOOP", "LIMIT", "HANDLER",
	"SQLEXCEPTION", "CALL", "START", "RETURNS", "READS", "SQL", "DATA",
	"TEMPORARY", "PREPARE", "EXIT", "CONTINUE", "FOUND", "INOUT", "OUT",
	"REPLACE", "ROW", "EACH", "AFTER", "BEFORE",
}

// placeholder fills an otherwise empty IF branch.
const placeholder = "DO 0;"

// fetchStatus tracks the outcome of the last FETCH, following the T-SQL
// convention: 0 on success, -1 when no row was found.
const fetchStatus = "v_fetch_status"
