// Package models holds the GORM table mappings. Domain entities carry no
// ORM tags; each model converts to and from its entity with ToDomain and
// a FromDomain constructor. Postgres builds the same schema from the SQL
// files under migrations/, sqlite from AutoMigrate over All().
package models
