package service

import (
	"strings"

	"medcrm_backend/internal/categories/repository"
)

// Tree is an immutable snapshot of the category forest.
type Tree struct {
	ordered []repository.Category
	byID    map[string]repository.Category
}

// NewTree indexes categories by id. Later duplicates of an id are ignored.
func NewTree(categories []repository.Category) *Tree {
	t := &Tree{
		ordered: categories,
		byID:    make(map[string]repository.Category, len(categories)),
	}
	for _, c := range categories {
		if _, exists := t.byID[c.ID]; !exists {
			t.byID[c.ID] = c
		}
	}
	return t
}

// Get returns the node with id.
func (t *Tree) Get(id string) (repository.Category, bool) {
	c, ok := t.byID[id]
	return c, ok
}

// FindByLeadFormID returns the first node whose form id equals formID.
func (t *Tree) FindByLeadFormID(formID string) (repository.Category, bool) {
	formID = strings.TrimSpace(formID)
	if formID == "" {
		return repository.Category{}, false
	}
	for _, c := range t.ordered {
		if strings.TrimSpace(c.LeadFormID) == formID {
			return c, true
		}
	}
	return repository.Category{}, false
}

// ParentChain returns the ancestors of id, nearest first. Each step follows
// parentId, falling back to the node's top-level group. The walk ends at a
// missing node, a node with neither, or the first repeated id.
func (t *Tree) ParentChain(id string) []string {
	chain := make([]string, 0, 4)
	visited := map[string]struct{}{id: {}}
	current := id

	for {
		node, ok := t.byID[current]
		if !ok {
			return chain
		}

		next := ""
		switch {
		case node.ParentID != nil && *node.ParentID != "":
			next = *node.ParentID
		case node.TopParent != "":
			next = string(node.TopParent)
		default:
			return chain
		}

		if _, seen := visited[next]; seen {
			return chain
		}
		visited[next] = struct{}{}
		chain = append(chain, next)
		current = next
	}
}

// Children returns the nodes whose parent is id.
func (t *Tree) Children(id string) []repository.Category {
	var out []repository.Category
	for _, c := range t.ordered {
		if c.ParentID != nil && *c.ParentID == id {
			out = append(out, c)
		}
	}
	return out
}

// createsCycle reports whether making parentID the parent of id would loop
// back to id.
func (t *Tree) createsCycle(id, parentID string) bool {
	visited := map[string]struct{}{}
	current := parentID
	for current != "" {
		if current == id {
			return true
		}
		if _, seen := visited[current]; seen {
			return true
		}
		visited[current] = struct{}{}
		node, ok := t.byID[current]
		if !ok || node.ParentID == nil {
			return false
		}
		current = *node.ParentID
	}
	return false
}

// ResolveLabel returns the first active label attached to categoryID or, failing
// that, to the nearest ancestor on its parent chain. Nil means no label applies.
func ResolveLabel(tree *Tree, labels []repository.Label, categoryID string) *repository.Label {
	if categoryID == "" {
		return nil
	}

	active := make(map[string]repository.Label, len(labels))
	for _, l := range labels {
		if !l.Active {
			continue
		}
		if _, exists := active[l.CategoryID]; !exists {
			active[l.CategoryID] = l
		}
	}

	if l, ok := active[categoryID]; ok {
		return &l
	}
	for _, ancestor := range tree.ParentChain(categoryID) {
		if l, ok := active[ancestor]; ok {
			return &l
		}
	}
	return nil
}
