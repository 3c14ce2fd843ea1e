package generate

import (
	"fmt"
	"strings"
)

// ValidateRoute enforces that a route is non-empty, rooted and stays inside
// the output directory.
func ValidateRoute(route string) error {
	switch {
	case route == "":
		return fmt.Errorf("empty route")
	case !strings.HasPrefix(route, "/"):
		return fmt.Errorf("route %q must begin with /", route)
	case strings.ContainsAny(route, "\\\x00"):
		return fmt.Errorf("route %q contains invalid characters", route)
	}
	for _, seg := range strings.Split(route, "/") {
		if seg == ".." || seg == "." {
			return fmt.Errorf("route %q contains relative segments", route)
		}
	}
	return nil
}

// OutputFile maps a route to its slash-separated file path inside the output
// directory: "/" is index.html; other routes are <route>/index.html with
// subfolders and <route>.html without.
func OutputFile(route string, subfolders bool) (string, error) {
	if err := ValidateRoute(route); err != nil {
		return "", err
	}
	trimmed := strings.Trim(route, "/")
	switch {
	case trimmed == "":
		return "index.html", nil
	case subfolders:
		return trimmed + "/index.html", nil
	default:
		return trimmed + ".html", nil
	}
}
