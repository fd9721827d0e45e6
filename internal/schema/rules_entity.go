package schema

import (
	"fmt"
	"strings"

	"github.com/slatehq/slate/model"
)

// Entity-specific issue codes.
const (
	CodeInvalidPriorityLevels  = "invalid-priority-levels"
	CodeInvalidAuthorityLevels = "invalid-authority-levels"
	CodeInvalidTypeFilters     = "invalid-type-filters"
	CodeMissingTypeFilters     = "missing-type-filters"
	CodeMissingPriorityLevels  = "missing-priority-levels"
)

// entityRuleSets maps entity types to their business-rule checks. Entity
// types listed with a nil check are declared extension points: no upstream
// rules exist for them yet, and the validator must not invent any.
var entityRuleSets = map[string]func(map[string]any, *collector){
	model.EntityOrganizations: organizationRules,
	model.EntityContacts:      contactRules,
	model.EntityOpportunities: nil,
	model.EntityProducts:      nil,
	model.EntityInteractions:  nil,
}

// EntityRuleStatus reports whether business rules exist for an entity type.
func EntityRuleStatus(entityType string) GroupStatus {
	check, known := entityRuleSets[entityType]
	if !known || check == nil {
		return StatusNotImplemented
	}
	return StatusActive
}

// entityRules dispatches to the rule set for the document's entity type.
func (v *Validator) entityRules(raw map[string]any, c *collector) {
	et, ok := stringField(raw, "entityType")
	if !ok {
		return
	}
	if check := entityRuleSets[et]; check != nil {
		spec, _ := mapField(raw, "entitySpecific")
		check(spec, c)
	}
}

// organizationRules validates organization layout settings. An entitySpecific
// block, once declared, must carry both typeFilters (an array) and
// priorityLevels drawn from the fixed grade set.
func organizationRules(spec map[string]any, c *collector) {
	if spec == nil {
		return
	}
	tv, present := spec["typeFilters"]
	if !present {
		c.errorf("entitySpecific.typeFilters", CodeMissingTypeFilters,
			"typeFilters is required for organization layouts")
	} else if _, ok := asSlice(tv); !ok {
		c.errorf("entitySpecific.typeFilters", CodeInvalidTypeFilters,
			"typeFilters must be an array")
	}
	if _, present := spec["priorityLevels"]; !present {
		c.errorf("entitySpecific.priorityLevels", CodeMissingPriorityLevels,
			"priorityLevels is required for organization layouts")
		return
	}
	checkLevelSet(spec, "priorityLevels", CodeInvalidPriorityLevels,
		model.ValidPriorityLevels, c)
}

// contactRules validates contact layout settings.
func contactRules(spec map[string]any, c *collector) {
	if spec == nil {
		return
	}
	checkLevelSet(spec, "authorityLevels", CodeInvalidAuthorityLevels,
		model.ValidAuthorityLevels, c)
}

// checkLevelSet validates an enumerated level list. All offending values are
// reported in a single error whose details name the invalid entries first
// and the permitted set after, so a batch of bad values stays one finding.
func checkLevelSet(spec map[string]any, field, code string, valid []string, c *collector) {
	val, present := spec[field]
	if !present {
		return
	}
	items, ok := asSlice(val)
	if !ok {
		c.errorf("entitySpecific."+field, code, "%s must be an array", field)
		return
	}

	var invalid []string
	for _, item := range items {
		s, isStr := asString(item)
		if !isStr {
			invalid = append(invalid, fmt.Sprintf("%v", item))
			continue
		}
		found := false
		for _, v := range valid {
			if s == v {
				found = true
				break
			}
		}
		if !found {
			invalid = append(invalid, s)
		}
	}
	if len(invalid) == 0 {
		return
	}

	details := make([]string, 0, len(invalid)+1)
	for _, s := range invalid {
		details = append(details, fmt.Sprintf("invalid value: %s", s))
	}
	details = append(details, "valid values: "+strings.Join(valid, ", "))
	c.errorWithDetails("entitySpecific."+field, code,
		fmt.Sprintf("%s contains values outside the permitted set", field), details)
}
