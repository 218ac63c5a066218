package schema

// Built-in content type ids.
const (
	SectionID = "section"
	TextID    = "text"
	ImageID   = "image"
	MainID    = "main"
)

// PageMetadata returns the page-level metadata model.
func PageMetadata() PageConfig {
	return PageConfig{
		Models: []Model{{
			ID: "page-metadata",
			Fields: []Field{
				{Component: ComponentText, Name: "title", Label: "Title"},
				{Component: ComponentText, Name: "description", Label: "Description"},
				{Component: ComponentReference, Name: "image", Label: "Image"},
				{Component: ComponentText, Name: "robots", Label: "Robots", Description: "Index control via robots"},
			},
		}},
	}
}

// Text returns the default text component.
func Text() ContentConfig {
	return ContentConfig{
		Definitions: []Definition{{
			Title:   "Text",
			ID:      TextID,
			Plugins: Plugins{DA: DAPlugin{Name: TextID, Type: TextID}},
		}},
		Models: []Model{},
	}
}

// Image returns the default image component and its model.
func Image() ContentConfig {
	return ContentConfig{
		Definitions: []Definition{{
			Title:   "Image",
			ID:      ImageID,
			Plugins: Plugins{DA: DAPlugin{Name: ImageID, Type: ImageID}},
		}},
		Models: []Model{{
			ID: ImageID,
			Fields: []Field{
				{Component: ComponentReference, Name: "image", Hidden: true, Multi: boolPtr(false)},
				{Component: ComponentReference, Name: ImageSelector(2), Label: "Image", Multi: boolPtr(false)},
				{Component: ComponentText, Name: ImageAltSelector(2), Label: "Alt Text"},
			},
		}},
	}
}

// Section returns the section wrapper. Its filter admits text, image and
// every name in blockNames, in that order.
func Section(blockNames []string) Schema {
	components := append([]string{TextID, ImageID}, blockNames...)
	return Schema{
		Definitions: []Definition{{
			Title:   "Section",
			ID:      SectionID,
			Plugins: Plugins{DA: DAPlugin{UnsafeHTML: "<div></div>"}},
			Filter:  SectionID,
			Model:   SectionID,
		}},
		Models: []Model{{
			ID: SectionID,
			Fields: []Field{{
				Component: ComponentMultiselect,
				Name:      "style",
				Label:     "Style",
				Options:   []Option{{Name: "Highlight", Value: "highlight"}},
			}},
		}},
		Filters: []Filter{{ID: SectionID, Components: components}},
	}
}

// ComponentDefinitionTemplate aggregates every definition into palette
// groups.
func ComponentDefinitionTemplate() DefinitionTemplate {
	return DefinitionTemplate{
		Groups: []Group{
			{
				Title: "Default Content",
				ID:    "default",
				Components: []Include{
					{Ref: "./text.json#/definitions"},
					{Ref: "./image.json#/definitions"},
				},
			},
			{
				Title:      "Sections",
				ID:         "sections",
				Components: []Include{{Ref: "./section.json#/definitions"}},
			},
			{
				Title:      "Blocks",
				ID:         "blocks",
				Components: []Include{{Ref: "./blocks/*.json#/definitions"}},
			},
		},
	}
}

// ComponentModelsTemplate aggregates every model.
func ComponentModelsTemplate() []Include {
	return []Include{
		{Ref: "./page.json#/models"},
		{Ref: "./text.json#/models"},
		{Ref: "./image.json#/models"},
		{Ref: "./section.json#/models"},
		{Ref: "./blocks/*.json#/models"},
	}
}

// ComponentFiltersTemplate lets the main area hold sections and splices in
// the section and block filters.
func ComponentFiltersTemplate() []FilterEntry {
	return []FilterEntry{
		{ID: MainID, Components: []string{SectionID}},
		{Ref: "./section.json#/filters"},
		{Ref: "./blocks/*.json#/filters"},
	}
}

// ConfigFile is one generated file of the base configuration set. Name is
// relative to the models directory.
type ConfigFile struct {
	Name    string `json:"name"`
	Content any    `json:"content"`
}

// BaseConfigs returns the built-in content schemas and the aggregate
// templates, in write order. blockNames feed the section filter.
func BaseConfigs(blockNames []string) []ConfigFile {
	return []ConfigFile{
		{Name: "page.json", Content: PageMetadata()},
		{Name: "text.json", Content: Text()},
		{Name: "image.json", Content: Image()},
		{Name: "section.json", Content: Section(blockNames)},
		{Name: "component-definition.json", Content: ComponentDefinitionTemplate()},
		{Name: "component-models.json", Content: ComponentModelsTemplate()},
		{Name: "component-filters.json", Content: ComponentFiltersTemplate()},
	}
}
