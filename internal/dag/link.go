package dag

import "strings"

// Object describes a script for linking: the names it creates and the names
// it refers to.
type Object[T any] struct {
	ID         string
	Defines    []string
	References []string
	Data       T
}

// Unresolved is a reference that matched no defined name.
type Unresolved struct {
	ID   string
	Name string
}

// Link builds a graph from objects. A reference to a name defined by another
// object becomes an edge from the defining object to the referencing one.
// Names compare case-insensitively and ignore bracket or quote delimiters.
// References an object makes to its own names are dropped. References to
// names nothing defines are returned as unresolved; they usually point at
// tables or at objects outside the input set.
func Link[T any](objects []Object[T]) (*Graph[T], []Unresolved, error) {
	g := New[T]()
	owner := make(map[string]string)
	for _, o := range objects {
		g.AddNode(o.ID, o.Data)
		for _, name := range o.Defines {
			key := NormalizeName(name)
			if key == "" {
				continue
			}
			if _, taken := owner[key]; !taken {
				owner[key] = o.ID
			}
		}
	}

	var unresolved []Unresolved
	for _, o := range objects {
		seen := make(map[string]bool)
		for _, name := range o.References {
			key := NormalizeName(name)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			parent, ok := owner[key]
			if !ok {
				unresolved = append(unresolved, Unresolved{ID: o.ID, Name: name})
				continue
			}
			if parent == o.ID {
				continue
			}
			if err := g.AddEdge(parent, o.ID); err != nil {
				return nil, nil, err
			}
		}
	}
	return g, unresolved, nil
}

// NormalizeName lowercases name and strips [], "" and `` delimiters from
// each dot-separated part.
func NormalizeName(name string) string {
	parts := strings.Split(strings.TrimSpace(name), ".")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if len(p) >= 2 {
			switch {
			case p[0] == '[' && p[len(p)-1] == ']',
				p[0] == '"' && p[len(p)-1] == '"',
				p[0] == '`' && p[len(p)-1] == '`':
				p = p[1 : len(p)-1]
			}
		}
		parts[i] = strings.ToLower(p)
	}
	return strings.Join(parts, ".")
}
