package component

import (
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/slatehq/slate/model"
)

// Component categories.
const (
	CategoryData       = "data"
	CategoryNavigation = "navigation"
	CategoryInput      = "input"
	CategoryDisplay    = "display"
)

// RegisterBuiltins installs the standard CRM component set. Called once at
// startup before any manifest is applied.
func RegisterBuiltins(r *Registry) error {
	for _, entry := range builtinEntries() {
		if err := r.Register(entry); err != nil {
			return err
		}
	}
	return nil
}

func builtinEntries() []model.ComponentEntry {
	return []model.ComponentEntry{
		{
			ID:             "data-table",
			Name:           "Data Table",
			Category:       CategoryData,
			Description:    "Sortable, filterable row grid with optional virtualization.",
			SupportedSlots: []string{"content"},
			DefaultProps: map[string]any{
				"pageSize":             25,
				"enableVirtualization": "auto",
			},
			PropsSchema: openapi3.NewObjectSchema().
				WithProperty("pageSize", openapi3.NewIntegerSchema().WithMin(1).WithMax(500)).
				WithProperty("enableVirtualization", openapi3.NewStringSchema().WithEnum("auto", "true", "false")).
				WithProperty("virtualizationThreshold", openapi3.NewIntegerSchema().WithMin(1)).
				WithProperty("enableCaching", openapi3.NewBoolSchema()).
				WithProperty("itemsPath", openapi3.NewStringSchema()),
			Bind: bindItems,
		},
		{
			ID:             "entity-card",
			Name:           "Entity Card",
			Category:       CategoryDisplay,
			Description:    "Summary card for a single entity record.",
			SupportedSlots: []string{"content", "sidebar", "meta"},
			PropsSchema: openapi3.NewObjectSchema().
				WithProperty("showAvatar", openapi3.NewBoolSchema()).
				WithProperty("fields", openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())),
		},
		{
			ID:             "kanban-board",
			Name:           "Kanban Board",
			Category:       CategoryData,
			Description:    "Stage-grouped card columns for pipeline views.",
			SupportedSlots: []string{"content"},
			SupportedEntities: []string{
				model.EntityOpportunities, model.EntityInteractions,
			},
			DefaultProps: map[string]any{"groupBy": "stage"},
			PropsSchema: openapi3.NewObjectSchema().
				WithProperty("groupBy", openapi3.NewStringSchema()).
				WithProperty("itemsPath", openapi3.NewStringSchema()),
			Bind: bindItems,
		},
		{
			ID:             "page-header",
			Name:           "Page Header",
			Category:       CategoryDisplay,
			SupportedSlots: []string{"header"},
			PropsSchema: openapi3.NewObjectSchema().
				WithProperty("title", openapi3.NewStringSchema()).
				WithProperty("subtitle", openapi3.NewStringSchema()),
		},
		{
			ID:             "action-bar",
			Name:           "Action Bar",
			Category:       CategoryNavigation,
			Description:    "Primary action buttons for the current view.",
			SupportedSlots: []string{"actions", "header"},
		},
		{
			ID:             "search-box",
			Name:           "Search Box",
			Category:       CategoryInput,
			SupportedSlots: []string{"search", "actions"},
			DefaultProps:   map[string]any{"debounceMs": 300},
			PropsSchema: openapi3.NewObjectSchema().
				WithProperty("placeholder", openapi3.NewStringSchema()).
				WithProperty("debounceMs", openapi3.NewIntegerSchema().WithMin(0)),
		},
		{
			ID:             "filter-panel",
			Name:           "Filter Panel",
			Category:       CategoryInput,
			SupportedSlots: []string{"filters", "sidebar"},
		},
		{
			ID:             "detail-tabs",
			Name:           "Detail Tabs",
			Category:       CategoryNavigation,
			SupportedSlots: []string{"content"},
			PropsSchema: openapi3.NewObjectSchema().
				WithProperty("tabs", openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())),
		},
		{
			ID:             "activity-timeline",
			Name:           "Activity Timeline",
			Category:       CategoryDisplay,
			Description:    "Chronological interaction feed for a record.",
			SupportedSlots: []string{"content", "sidebar"},
			SupportedEntities: []string{
				model.EntityContacts, model.EntityOrganizations, model.EntityInteractions,
			},
			Bind: bindItems,
		},
		{
			ID:             "metric-tiles",
			Name:           "Metric Tiles",
			Category:       CategoryDisplay,
			SupportedSlots: []string{"meta", "header"},
		},
		{
			ID:             "related-list",
			Name:           "Related List",
			Category:       CategoryData,
			Description:    "Compact list of records linked to the current one.",
			SupportedSlots: []string{"sidebar", "content"},
			Bind:           bindItems,
		},
		{
			ID:             "breadcrumb-trail",
			Name:           "Breadcrumb Trail",
			Category:       CategoryNavigation,
			SupportedSlots: []string{"header"},
		},
		{
			ID:             "footer-summary",
			Name:           "Footer Summary",
			Category:       CategoryDisplay,
			SupportedSlots: []string{"footer"},
		},
	}
}
