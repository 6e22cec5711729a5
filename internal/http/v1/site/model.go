package site

// Bundle is a generated static site.
type Bundle struct {
	Paths []string          `json:"paths" doc:"Generated paths, sorted"`
	Files map[string]string `json:"files" doc:"Path to file content"`
}
