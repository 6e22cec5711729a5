package draft

import "github.com/janisto/portfolio-generator/internal/portfolio"

// DraftGetInput for GET /draft
type DraftGetInput struct{}

// DraftReplaceInput for PUT /draft
type DraftReplaceInput struct {
	Body portfolio.FormState
}

// DraftUpdateInput for PATCH /draft
type DraftUpdateInput struct {
	Body struct {
		Path  string `json:"path"  minLength:"1" required:"true" doc:"Field path" example:"experience.0.company"`
		Value string `json:"value"                               doc:"New value"  example:"Analytical Engine"`
	}
}

// DraftClearInput for DELETE /draft
type DraftClearInput struct {
	Confirm bool `query:"confirm" doc:"Must be true; clearing is destructive"`
}

// EntryAppendInput for POST /draft/sections/{section}/entries
type EntryAppendInput struct {
	Section string `path:"section" enum:"experience,projects,education" doc:"Repeatable section"`
}

// EntryRemoveInput for DELETE /draft/sections/{section}/entries/{index}
type EntryRemoveInput struct {
	Section string `path:"section" enum:"experience,projects,education" doc:"Repeatable section"`
	Index   int    `path:"index"   minimum:"0"                           doc:"Row index"`
}

// SkillAddInput for POST /draft/skills
type SkillAddInput struct {
	Body struct {
		Skill string `json:"skill" minLength:"1" required:"true" doc:"Skill token; commas add several" example:"Go"`
	}
}

// SkillRemoveInput for DELETE /draft/skills/{skill}
type SkillRemoveInput struct {
	Skill string `path:"skill" doc:"Skill token" example:"Go"`
}

// DraftSubmitInput for POST /draft/submit
type DraftSubmitInput struct{}
