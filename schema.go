package gofilterer

import (
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

var _schemaCache sync.Map

// tableName returns the table a query reads from: the explicit Table() name or
// the table of its model. Empty when neither is known.
func tableName(db *gorm.DB) string {
	if db == nil || db.Statement == nil {
		return ""
	}

	if db.Statement.Table != "" {
		return db.Statement.Table
	}

	model := db.Statement.Model
	if model == nil {
		model = db.Statement.Dest
	}
	if model == nil {
		return ""
	}

	namer := db.NamingStrategy
	if namer == nil {
		namer = schema.NamingStrategy{}
	}

	s, err := schema.Parse(model, &_schemaCache, namer)
	if err != nil {
		return ""
	}

	return s.Table
}
