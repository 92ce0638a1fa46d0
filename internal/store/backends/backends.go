// Package backends registers every store backend with the store registry.
// Import it for side effects.
package backends

import (
	_ "github.com/JonMunkholm/crudimport/internal/store/mongo"
	_ "github.com/JonMunkholm/crudimport/internal/store/mysql"
	_ "github.com/JonMunkholm/crudimport/internal/store/postgres"
)
