package mysql

import (
	"github.com/leapstack-labs/sqlconvert/pkg/dialect"
	"github.com/leapstack-labs/sqlconvert/pkg/token"
)

func init() {
	dialect.Register(MySQL)
}

// MySQL is the MySQL dialect. Local variables take a v_ prefix so they
// cannot shadow column names.
var MySQL = dialect.NewDialect("mysql").
	Identifiers("`", "`", "``", dialect.NormCaseInsensitive).
	Variables("v_").
	Placeholder(placeholder).
	Functions(functions).
	SystemVariables(systemVariables).
	DataTypes(dataTypes).
	WithKeywords(token.Keywords()...).
	WithKeywords(mysqlKeywords...).
	WithReservedWords(mysqlReservedWords...).
	Generator(func(d *dialect.Dialect) dialect.Generator { return NewGenerator(d, nil) }).
	Build()
