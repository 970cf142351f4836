package symbol

import "strings"

var httpMethods = map[string]bool{
	"GET":     true,
	"POST":    true,
	"PUT":     true,
	"DELETE":  true,
	"PATCH":   true,
	"HEAD":    true,
	"OPTIONS": true,
}

// HTTPMethod returns the uppercase verb for name and whether it is a known
// HTTP method. Matching is case-insensitive.
func HTTPMethod(name string) (string, bool) {
	m := strings.ToUpper(name)
	return m, httpMethods[m]
}

// Literal is one argument value captured from a decorator.
type Literal struct {
	Value  string
	String bool // true when the source was a string literal
}

// Decorator is a decorator or annotation reduced to plain data, e.g.
// @app.get("/users") becomes {Receiver: "app", Name: "get", Args: ["/users"]}.
type Decorator struct {
	Receiver string
	Name     string
	Args     []Literal
	Keywords map[string][]Literal
	Line     int
}

// FirstString returns the first positional argument when it is a string literal.
func (d Decorator) FirstString() (string, bool) {
	if len(d.Args) == 0 || !d.Args[0].String {
		return "", false
	}
	return d.Args[0].Value, true
}

// NormalizePath ensures p starts with a slash. Placeholders are left alone.
func NormalizePath(p string) string {
	if strings.HasPrefix(p, "/") {
		return p
	}
	return "/" + p
}

// JoinPath joins a base path and a sub path into a single normalized path:
// one leading slash, no doubled slashes and no trailing slash except for
// the root itself. JoinPath("/api/", "users") is "/api/users".
func JoinPath(base, sub string) string {
	var parts []string
	for _, s := range []string{base, sub} {
		if s = strings.Trim(s, "/"); s != "" {
			parts = append(parts, s)
		}
	}
	return "/" + strings.Join(parts, "/")
}
