// Package curriculum holds the ordered module/section table of the Mount Athos
// course. Every "what comes next" decision (recommendations, next steps,
// request validation) reads this table and nothing else.
package curriculum

type Section struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type Module struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

var modules = []Module{
	{
		ID:    "history",
		Title: "History of the Holy Mountain",
		Sections: []Section{
			{ID: "byzantine-origins", Title: "Byzantine Origins"},
			{ID: "ottoman-period", Title: "The Ottoman Period"},
			{ID: "modern-era", Title: "The Modern Era"},
		},
	},
	{
		ID:    "monasteries",
		Title: "The Twenty Monasteries",
		Sections: []Section{
			{ID: "ruling-monasteries", Title: "Ruling Monasteries"},
			{ID: "sketes-and-cells", Title: "Sketes and Cells"},
			{ID: "daily-life", Title: "Daily Monastic Life"},
		},
	},
	{
		ID:    "spirituality",
		Title: "Spiritual Tradition",
		Sections: []Section{
			{ID: "hesychasm", Title: "Hesychasm"},
			{ID: "liturgy", Title: "Liturgy and Feasts"},
			{ID: "pilgrimage", Title: "Pilgrimage"},
		},
	},
	{
		ID:    "art",
		Title: "Art and Architecture",
		Sections: []Section{
			{ID: "iconography", Title: "Iconography"},
			{ID: "architecture", Title: "Architecture"},
			{ID: "manuscripts", Title: "Manuscripts and Libraries"},
		},
	},
	{
		ID:    "nature",
		Title: "Nature of the Peninsula",
		Sections: []Section{
			{ID: "flora-fauna", Title: "Flora and Fauna"},
			{ID: "hiking-trails", Title: "Hiking Trails"},
			{ID: "conservation", Title: "Conservation"},
		},
	},
}

// Modules returns a copy of the ordered table.
func Modules() []Module {
	out := make([]Module, len(modules))
	for i, m := range modules {
		out[i] = Module{ID: m.ID, Title: m.Title, Sections: append([]Section(nil), m.Sections...)}
	}
	return out
}

func FirstSection() (moduleID, sectionID string) {
	return modules[0].ID, modules[0].Sections[0].ID
}

func HasModule(moduleID string) bool {
	return moduleIndex(moduleID) >= 0
}

func HasSection(moduleID, sectionID string) bool {
	mi := moduleIndex(moduleID)
	return mi >= 0 && sectionIndex(mi, sectionID) >= 0
}

// SectionIDs returns the ordered section ids of a module, nil if unknown.
func SectionIDs(moduleID string) []string {
	mi := moduleIndex(moduleID)
	if mi < 0 {
		return nil
	}
	ids := make([]string, len(modules[mi].Sections))
	for i, s := range modules[mi].Sections {
		ids[i] = s.ID
	}
	return ids
}

// NextSection walks the sections of the module first, then the first section
// of the following module. ok is false for the last section and for pairs
// that are not in the table.
func NextSection(moduleID, sectionID string) (nextModule, nextSection string, ok bool) {
	mi := moduleIndex(moduleID)
	if mi < 0 {
		return "", "", false
	}
	si := sectionIndex(mi, sectionID)
	if si < 0 {
		return "", "", false
	}
	if si+1 < len(modules[mi].Sections) {
		return moduleID, modules[mi].Sections[si+1].ID, true
	}
	for next := mi + 1; next < len(modules); next++ {
		if len(modules[next].Sections) > 0 {
			return modules[next].ID, modules[next].Sections[0].ID, true
		}
	}
	return "", "", false
}

func moduleIndex(moduleID string) int {
	for i, m := range modules {
		if m.ID == moduleID {
			return i
		}
	}
	return -1
}

func sectionIndex(mi int, sectionID string) int {
	for i, s := range modules[mi].Sections {
		if s.ID == sectionID {
			return i
		}
	}
	return -1
}
