package mailinline

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

// DefaultSourcePrefix and DefaultAssetsPrefix are the URL prefixes the
// preview server rewrites onto.
const (
	DefaultSourcePrefix = "/src"
	DefaultAssetsPrefix = "/assets"
)

// RouteTable maps artifact filenames and route names to their templates.
// Every template has exactly one entry; filenames and routes are unique.
type RouteTable struct {
	entries map[string]Template // artifact filename -> template
	routes  map[string]Template // route name -> template
	order   []string            // artifact filenames in insertion order
}

// NewRouteTable creates an empty RouteTable.
func NewRouteTable() *RouteTable {
	return &RouteTable{
		entries: make(map[string]Template),
		routes:  make(map[string]Template),
	}
}

// BuildRouteTable adds every template to a new table.
func BuildRouteTable(templates []Template) (*RouteTable, error) {
	rt := NewRouteTable()
	for _, t := range templates {
		if err := rt.Add(t); err != nil {
			return nil, err
		}
	}
	return rt, nil
}

// Add registers t. A second template with the same artifact filename or route
// returns ErrDuplicateRoute and leaves the table unchanged.
func (rt *RouteTable) Add(t Template) error {
	name := artifactName(t)
	if prev, ok := rt.entries[name]; ok {
		return fmt.Errorf("%w: %s and %s both emit %s", ErrDuplicateRoute, prev.Path, t.Path, name)
	}
	if prev, ok := rt.routes[t.Route]; ok {
		return fmt.Errorf("%w: %s and %s both serve /%s", ErrDuplicateRoute, prev.Path, t.Path, t.Route)
	}
	rt.entries[name] = t
	rt.routes[t.Route] = t
	rt.order = append(rt.order, name)
	return nil
}

// Len returns the number of templates.
func (rt *RouteTable) Len() int {
	return len(rt.order)
}

// Entries returns artifact filename to source path.
func (rt *RouteTable) Entries() map[string]string {
	out := make(map[string]string, len(rt.entries))
	for name, t := range rt.entries {
		out[name] = t.Path
	}
	return out
}

// Templates returns the templates in insertion order.
func (rt *RouteTable) Templates() []Template {
	out := make([]Template, 0, len(rt.order))
	for _, name := range rt.order {
		out = append(out, rt.entries[name])
	}
	return out
}

// Lookup finds a template by route name or filename, with or without a
// leading slash.
func (rt *RouteTable) Lookup(name string) (Template, bool) {
	name = strings.TrimPrefix(name, "/")
	if t, ok := rt.routes[name]; ok {
		return t, true
	}
	t, ok := rt.entries[name]
	return t, ok
}

// ProxyRoute rewrites request paths starting with Prefix onto Target.
type ProxyRoute struct {
	Prefix string
	Target string
	Strip  bool // replace Prefix with Target instead of mapping the exact path
}

// Rewrite returns the rewritten path for p and whether the route applies.
func (r ProxyRoute) Rewrite(p string) (string, bool) {
	if r.Strip {
		if p != r.Prefix && !strings.HasPrefix(p, r.Prefix+"/") {
			return "", false
		}
		return r.Target + strings.TrimPrefix(p, r.Prefix), true
	}
	if p != r.Prefix {
		return "", false
	}
	return r.Target, true
}

// ProxyRoutes returns the preview rewrite rules: "/<filename>" and "/<route>"
// both map to the template under sourcePrefix, and sourcePrefix+assetsPrefix
// maps onto assetsPrefix for raw asset access. Empty prefixes select the
// defaults. Routes are sorted by prefix.
func (rt *RouteTable) ProxyRoutes(sourcePrefix, assetsPrefix string) []ProxyRoute {
	if sourcePrefix == "" {
		sourcePrefix = DefaultSourcePrefix
	}
	if assetsPrefix == "" {
		assetsPrefix = DefaultAssetsPrefix
	}

	routes := make([]ProxyRoute, 0, 2*len(rt.order)+1)
	routes = append(routes, ProxyRoute{
		Prefix: path.Join(sourcePrefix, assetsPrefix),
		Target: assetsPrefix,
		Strip:  true,
	})
	for _, name := range rt.order {
		t := rt.entries[name]
		routes = append(routes,
			ProxyRoute{Prefix: "/" + name, Target: path.Join(sourcePrefix, t.Filename)},
			ProxyRoute{Prefix: "/" + t.Route, Target: path.Join(sourcePrefix, t.Filename)},
		)
	}

	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i].Prefix < routes[j].Prefix
	})
	return routes
}
