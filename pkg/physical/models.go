// Package physical serves the catalogue the database creation form draws
// from: engine types and their engines, deployment plans, and the
// environments each plan can be deployed to.
package physical

import "fmt"

// EngineType is a database product, such as mysql or mongodb.
type EngineType struct {
	ID   uint   `gorm:"primaryKey;column:id"`
	Name string `gorm:"column:name;uniqueIndex;not null"`
}

// TableName returns the GORM table name.
func (EngineType) TableName() string { return "engine_types" }

// Engine is a concrete version of an engine type.
type Engine struct {
	ID           uint       `gorm:"primaryKey;column:id"`
	EngineTypeID uint       `gorm:"column:engine_type_id;index;not null"`
	EngineType   EngineType `gorm:"foreignKey:EngineTypeID"`
	Version      string     `gorm:"column:version;not null"`
}

// TableName returns the GORM table name.
func (Engine) TableName() string { return "engines" }

// DisplayName is the text the form shows for the engine. It embeds the
// engine type name, which is what Endpoint visibility is derived from.
func (e Engine) DisplayName() string {
	if e.Version == "" {
		return e.EngineType.Name
	}
	return fmt.Sprintf("%s_%s", e.EngineType.Name, e.Version)
}

// Environment is a deployment target such as dev or prod.
type Environment struct {
	ID   uint   `gorm:"primaryKey;column:id"`
	Name string `gorm:"column:name;uniqueIndex;not null"`
}

// TableName returns the GORM table name.
func (Environment) TableName() string { return "environments" }

// Plan is a deployment plan offered for every engine of its engine type.
type Plan struct {
	ID           uint          `gorm:"primaryKey;column:id"`
	Name         string        `gorm:"column:name;not null"`
	Description  string        `gorm:"column:description"`
	IsActive     bool          `gorm:"column:is_active;index;not null"`
	EngineTypeID uint          `gorm:"column:engine_type_id;index;not null"`
	EngineType   EngineType    `gorm:"foreignKey:EngineTypeID"`
	Environments []Environment `gorm:"many2many:plan_environments"`
}

// TableName returns the GORM table name.
func (Plan) TableName() string { return "plans" }
