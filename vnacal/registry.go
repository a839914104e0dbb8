// Package vnacal: the calibration registry and its property trees.

package vnacal

import (
	"fmt"
	"sort"
	"strings"
)

// GlobalHandle addresses the registry-wide property tree in the
// property operations.
const GlobalHandle = -1

// propNode is one node of a hierarchical string property tree. A node
// may carry a value, children, or both.
type propNode struct {
	value    string
	hasValue bool
	children map[string]*propNode
}

func (n *propNode) set(path []string, v string) {
	if len(path) == 0 {
		n.value, n.hasValue = v, true

		return
	}
	if n.children == nil {
		n.children = make(map[string]*propNode)
	}
	child, ok := n.children[path[0]]
	if !ok {
		child = &propNode{}
		n.children[path[0]] = child
	}
	child.set(path[1:], v)
}

func (n *propNode) get(path []string) (string, bool) {
	if len(path) == 0 {
		return n.value, n.hasValue
	}
	child, ok := n.children[path[0]]
	if !ok {
		return "", false
	}

	return child.get(path[1:])
}

// delete removes the addressed node and its whole subtree.
func (n *propNode) delete(path []string) bool {
	if len(path) == 0 {
		n.value, n.hasValue, n.children = "", false, nil

		return true
	}
	child, ok := n.children[path[0]]
	if !ok {
		return false
	}
	if len(path) == 1 {
		delete(n.children, path[0])

		return true
	}

	return child.delete(path[1:])
}

// subkeys lists the child names under path, sorted.
func (n *propNode) subkeys(path []string) ([]string, bool) {
	if len(path) > 0 {
		child, ok := n.children[path[0]]
		if !ok {
			return nil, false
		}

		return child.subkeys(path[1:])
	}
	keys := make([]string, 0, len(n.children))
	for k := range n.children {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys, true
}

// splitPath parses a dotted property path; an empty string addresses
// the tree root.
func splitPath(path string) []string {
	if path == "" {
		return nil
	}

	return strings.Split(path, ".")
}

type calEntry struct {
	name  string
	cal   *Calibration
	props *propNode
}

// Set is a registry of named calibrations, each carrying its own
// property tree, plus one global tree. Sets are not safe for
// concurrent use.
type Set struct {
	cals    map[int]*calEntry
	byName  map[string]int
	next    int
	global  *propNode
	errFunc ErrorFunc
}

// NewSet creates an empty registry.
func NewSet() *Set {
	return &Set{
		cals:   make(map[int]*calEntry),
		byName: make(map[string]int),
		global: &propNode{},
	}
}

// SetErrorFunc installs a callback observing every failure of registry
// operations. Pass nil to remove it.
func (s *Set) SetErrorFunc(fn ErrorFunc) { s.errFunc = fn }

func (s *Set) fail(cat Category, err error) error {
	if s.errFunc != nil {
		s.errFunc(cat, err.Error())
	}

	return err
}

// Add registers a calibration under a unique name and returns its
// handle.
func (s *Set) Add(cal *Calibration, name string) (int, error) {
	if cal == nil {
		return -1, s.fail(CategoryUsage, fmt.Errorf("Add: nil calibration: %w", ErrBadArgument))
	}
	if name == "" {
		return -1, s.fail(CategoryUsage, fmt.Errorf("Add: empty name: %w", ErrBadArgument))
	}
	if _, ok := s.byName[name]; ok {
		return -1, s.fail(CategoryUsage, fmt.Errorf("Add: name %q already registered: %w", name, ErrBadArgument))
	}
	h := s.next
	s.next++
	s.cals[h] = &calEntry{name: name, cal: cal, props: &propNode{}}
	s.byName[name] = h

	return h, nil
}

// Get returns the calibration behind a handle.
func (s *Set) Get(handle int) (*Calibration, error) {
	e, ok := s.cals[handle]
	if !ok {
		return nil, s.fail(CategoryUsage, fmt.Errorf("Get: handle %d: %w", handle, ErrNotFound))
	}

	return e.cal, nil
}

// Name returns the name a handle was registered under.
func (s *Set) Name(handle int) (string, error) {
	e, ok := s.cals[handle]
	if !ok {
		return "", s.fail(CategoryUsage, fmt.Errorf("Name: handle %d: %w", handle, ErrNotFound))
	}

	return e.name, nil
}

// FindByName returns the handle registered under name.
func (s *Set) FindByName(name string) (int, error) {
	h, ok := s.byName[name]
	if !ok {
		return -1, s.fail(CategoryUsage, fmt.Errorf("FindByName: %q: %w", name, ErrNotFound))
	}

	return h, nil
}

// Delete removes a calibration and its property tree. Handles are
// never reused.
func (s *Set) Delete(handle int) error {
	e, ok := s.cals[handle]
	if !ok {
		return s.fail(CategoryUsage, fmt.Errorf("Delete: handle %d: %w", handle, ErrNotFound))
	}
	delete(s.byName, e.name)
	delete(s.cals, handle)

	return nil
}

// Handles lists the registered handles ascending.
func (s *Set) Handles() []int {
	hs := make([]int, 0, len(s.cals))
	for h := range s.cals {
		hs = append(hs, h)
	}
	sort.Ints(hs)

	return hs
}

func (s *Set) props(op string, handle int) (*propNode, error) {
	if handle == GlobalHandle {
		return s.global, nil
	}
	e, ok := s.cals[handle]
	if !ok {
		return nil, s.fail(CategoryUsage, fmt.Errorf("%s: handle %d: %w", op, handle, ErrNotFound))
	}

	return e.props, nil
}

// PropertyGet fetches the value at a dotted path in the property tree
// of handle (GlobalHandle addresses the registry-wide tree).
func (s *Set) PropertyGet(handle int, path string) (string, error) {
	n, err := s.props("PropertyGet", handle)
	if err != nil {
		return "", err
	}
	v, ok := n.get(splitPath(path))
	if !ok {
		return "", s.fail(CategoryUsage, fmt.Errorf("PropertyGet: %q: %w", path, ErrNotFound))
	}

	return v, nil
}

// PropertySet stores a value at a dotted path, creating intermediate
// nodes as needed.
func (s *Set) PropertySet(handle int, path, value string) error {
	n, err := s.props("PropertySet", handle)
	if err != nil {
		return err
	}
	n.set(splitPath(path), value)

	return nil
}

// PropertyDelete removes the node at a dotted path together with its
// subtree. An empty path clears the whole tree.
func (s *Set) PropertyDelete(handle int, path string) error {
	n, err := s.props("PropertyDelete", handle)
	if err != nil {
		return err
	}
	if !n.delete(splitPath(path)) {
		return s.fail(CategoryUsage, fmt.Errorf("PropertyDelete: %q: %w", path, ErrNotFound))
	}

	return nil
}

// PropertySubkeys lists the child names under a dotted path, sorted.
func (s *Set) PropertySubkeys(handle int, path string) ([]string, error) {
	n, err := s.props("PropertySubkeys", handle)
	if err != nil {
		return nil, err
	}
	keys, ok := n.subkeys(splitPath(path))
	if !ok {
		return nil, s.fail(CategoryUsage, fmt.Errorf("PropertySubkeys: %q: %w", path, ErrNotFound))
	}

	return keys, nil
}
