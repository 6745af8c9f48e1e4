package vault

import _ "embed"

// seedData is the vault's seed collection, loaded once at startup.
//
//go:embed seed/resources.json
var seedData []byte
