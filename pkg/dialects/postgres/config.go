package postgres

// functions maps T-SQL function names to PostgreSQL. Keys ending in "()"
// replace the whole call.
var functions = map[string]string{
	"GETDATE":          "NOW",
	"SYSDATETIME":      "CLOCK_TIMESTAMP",
	"GETUTCDATE()":     "(NOW() AT TIME ZONE 'utc')",
	"ISNULL":           "COALESCE",
	"LEN":              "LENGTH",
	"DATALENGTH":       "OCTET_LENGTH",
	"NEWID":            "GEN_RANDOM_UUID",
	"SCOPE_IDENTITY()": "LASTVAL()",
	"ERROR_MESSAGE()":  "SQLERRM",
	"ERROR_NUMBER()":   "SQLSTATE",
}

// systemVariables maps T-SQL @@ variables to PostgreSQL expressions.
var systemVariables = map[string]string{
	"@@FETCH_STATUS": "(CASE WHEN FOUND THEN 0 ELSE -1 END)",
	"@@IDENTITY":     "LASTVAL()",
}

// dataTypes maps T-SQL data types to PostgreSQL. Full spellings such as
// NVARCHAR(MAX) are matched before bare type names.
var dataTypes = map[string]string{
	"NVARCHAR(MAX)":    "TEXT",
	"VARCHAR(MAX)":     "TEXT",
	"VARBINARY(MAX)":   "BYTEA",
	"NVARCHAR":         "VARCHAR",
	"NCHAR":            "CHAR",
	"NTEXT":            "TEXT",
	"IMAGE":            "BYTEA",
	"ROWVERSION":       "BYTEA",
	"BIT":              "BOOLEAN",
	"TINYINT":          "SMALLINT",
	"UNIQUEIDENTIFIER": "UUID",
	"MONEY":            "NUMERIC(19,4)",
	"SMALLMONEY":       "NUMERIC(10,4)",
	"DATETIME":         "TIMESTAMP(3)",
	"DATETIME2":        "TIMESTAMP",
	"SMALLDATETIME":    "TIMESTAMP(0)",
	"DATETIMEOFFSET":   "TIMESTAMPTZ",
}

// plpgsqlKeywords are cased as keywords by the formatter in addition to the
// T-SQL reserved words.
var plpgsqlKeywords = []string{
	"LOOP", "ELSIF", "RAISE", "NOTICE", "PERFORM", "LANGUAGE", "PLPGSQL",
	"RETURNS", "REPLACE", "EXCEPTION", "OTHERS", "CALL", "QUERY", "EXIT",
	"LIMIT", "TEMP", "SETOF", "STATEMENT", "EACH", "REFERENCING", "NEW",
	"OLD", "INOUT", "OUT", "AFTER", "BEFORE", "USING", "IF", "EXISTS",
}

// placeholder fills an otherwise empty IF branch or loop.
const placeholder = "NULL;"
