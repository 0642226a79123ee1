package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type TemplateType string

const (
	TemplateTypeSOAP      TemplateType = "soap"
	TemplateTypeDAP       TemplateType = "dap"
	TemplateTypeNarrative TemplateType = "narrative"
	TemplateTypeCustom    TemplateType = "custom"
)

// TemplateVariable is a declared placeholder within a template.
type TemplateVariable struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Required     bool    `json:"required"`
	DefaultValue *string `json:"default_value,omitempty"`
}

type TemplateVariables []TemplateVariable

func (v TemplateVariables) Value() (driver.Value, error) {
	if v == nil {
		return json.Marshal(TemplateVariables{})
	}
	return json.Marshal(v)
}

func (v *TemplateVariables) Scan(src interface{}) error {
	if src == nil {
		*v = TemplateVariables{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported variables type %T", src)
	}
	return json.Unmarshal(b, v)
}

// Template is a note layout with placeholders. A nil PracticeID marks a
// system-wide template. Content changes bump Version.
type Template struct {
	Base
	PracticeID   *uuid.UUID        `db:"practice_id" json:"practice_id,omitempty"`
	Name         string            `db:"name" json:"name"`
	Description  string            `db:"description" json:"description,omitempty"`
	TemplateType TemplateType      `db:"template_type" json:"template_type"`
	Content      string            `db:"content" json:"content"`
	Variables    TemplateVariables `db:"variables" json:"variables"`
	Version      int               `db:"version" json:"version"`
	IsDefault    bool              `db:"is_default" json:"is_default"`
	IsActive     bool              `db:"is_active" json:"is_active"`
}

type CreateTemplateRequest struct {
	PracticeID   *uuid.UUID         `json:"practice_id"`
	Name         string             `json:"name" binding:"required,max=255"`
	Description  string             `json:"description" binding:"max=1000"`
	TemplateType TemplateType       `json:"template_type" binding:"omitempty,oneof=soap dap narrative custom"`
	Content      string             `json:"content" binding:"required"`
	Variables    []TemplateVariable `json:"variables"`
}

type UpdateTemplateRequest struct {
	Name        *string             `json:"name"`
	Description *string             `json:"description"`
	Content     *string             `json:"content"`
	Variables   *[]TemplateVariable `json:"variables"`
	IsActive    *bool               `json:"is_active"`
}
