package generate

import "text/template"

// ---------- system prompts ----------

const pythonSystem = `You are a Python documentation expert. Given source code, generate PEP-257 compliant docstrings for functions that lack them.

Rules:
- Use triple double quotes.
- First line: concise one-sentence summary ending with a period.
- Include Args, Returns, and Raises sections only when applicable.
- Do not indent the docstring; indentation is added when it is inserted.
- If a target is marked as an HTTP endpoint, also return an OpenAPI operation object (summary, description, parameters, responses) under the "openapi" key. Use null otherwise.
- Return ONLY valid JSON, no extra prose.`

const typescriptSystem = `You are a TypeScript/JavaScript documentation expert. Given source code, generate JSDoc comments for functions that lack them.

Rules:
- Use /** */ format.
- Include @param and @returns tags when applicable.
- Do not indent the comment; indentation is added when it is inserted.
- If a target is marked as an HTTP endpoint, also return an OpenAPI operation object (summary, description, parameters, responses) under the "openapi" key. Use null otherwise.
- Return ONLY valid JSON, no extra prose.`

// ---------- user prompt ----------

var userTmpl = template.Must(template.New("user").Parse(
	`Analyze the following {{.LanguageName}} source code from "{{.Path}}" and generate {{.DocName}} for all functions listed under "targets". Each target has a name and a 1-based line number.
{{if .Source}}
Source file:
` + "```" + `{{.Fence}}
{{.Source}}
` + "```" + `
{{else}}
The file is too large to include in full. Source around each target:
{{range .Targets}}
{{.Name}} (line {{.Line}}):
` + "```" + `{{$.Fence}}
{{.Context}}
` + "```" + `
{{end}}{{end}}{{if .Diff}}
Recent changes to this file (git diff):
` + "```diff" + `
{{.Diff}}
` + "```" + `
{{end}}
Targets (name -> line):
{{range .Targets}}  - {{.Name}} (line {{.Line}}){{if .Endpoint}} [{{.Endpoint}}]{{end}}
{{end}}
Return JSON in this exact shape:
{
  "proposals": [
    {
      "symbol": "{{.ExampleName}}",
      "line": 12,
      "{{.DocKey}}": {{.ExampleDoc}},
      "openapi": null
    }
  ]
}`))

// promptTarget is one symbol as rendered into the user prompt.
type promptTarget struct {
	Name     string
	Line     int
	Endpoint string
	Context  string
}

// promptData feeds userTmpl.
type promptData struct {
	LanguageName string
	DocName      string
	DocKey       string
	Fence        string
	Path         string
	Source       string
	Diff         string
	Targets      []promptTarget
	ExampleName  string
	ExampleDoc   string
}

// languageStyle holds the per-language prompt vocabulary.
type languageStyle struct {
	system      string
	name        string
	docName     string
	docKey      string
	fence       string
	exampleName string
	exampleDoc  string
}

var styles = map[string]languageStyle{
	"python": {
		system:      pythonSystem,
		name:        "Python",
		docName:     "docstrings",
		docKey:      "docstring",
		fence:       "python",
		exampleName: "func_name",
		exampleDoc:  `"\"\"\"One-sentence summary.\n\nArgs:\n    ...\n\"\"\""`,
	},
	"typescript": {
		system:      typescriptSystem,
		name:        "TypeScript/JavaScript",
		docName:     "JSDoc comments",
		docKey:      "jsdoc",
		fence:       "typescript",
		exampleName: "funcName",
		exampleDoc:  `"/**\n * One-sentence summary.\n * @param name - Description\n * @returns Description\n */"`,
	},
}
