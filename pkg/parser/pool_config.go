package parser

import (
	"github.com/gnana997/blockschema/pkg/util"
)

// getDefaultPoolSize sizes each grammar's pool. It matches the batch worker
// limit in pkg/blocks so workers never queue on a parser.
func getDefaultPoolSize() int {
	return util.GetOptimalPoolSize()
}
