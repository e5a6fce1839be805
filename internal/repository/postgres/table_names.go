package postgres

import "fmt"

// TableNames holds dynamically prefixed table names. The prefix tracks
// the environment (dev_, test_, prod_) so all environments can share one
// database.
type TableNames struct {
	Documents string
	Chunks    string
	ChatTurns string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Documents: fmt.Sprintf("%sdocuments", prefix),
		Chunks:    fmt.Sprintf("%schunks", prefix),
		ChatTurns: fmt.Sprintf("%schat_turns", prefix),
	}
}
