package domain

import _ "embed"

// CypherHelp is a short Cypher reference served to API and CLI users.
//
//go:embed graph_cypher_help.md
var CypherHelp string
