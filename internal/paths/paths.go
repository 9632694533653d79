// Package paths validates and converts document-store paths for the fixed
// race-event hierarchy:
//
//	organizations/{id}/series/{id}/events/{id}/races/{id}/preems/{id}/contributions/{id}
//
// plus the flat users and invites collections. A document path has an even
// number of segments, a collection path an odd number. URL paths are the
// compact user-facing form with the literal collection segments stripped
// (just the instance ids, with the special "user/{id}" form for users).
package paths

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPath is returned for any path that does not fit the hierarchy.
var ErrInvalidPath = errors.New("invalid path")

// hierarchy is the fixed order of nested collections under organizations.
var hierarchy = []string{"organizations", "series", "events", "races", "preems", "contributions"}

// flatRoots are top-level collections that contain no sub-collections.
var flatRoots = map[string]bool{"users": true, "invites": true}

func split(p string) ([]string, bool) {
	if p == "" {
		return nil, false
	}
	segs := strings.Split(p, "/")
	for _, s := range segs {
		if s == "" {
			return nil, false
		}
	}
	return segs, true
}

// fits reports whether the segments follow the collection-name-at-position
// rules, without regard to doc/collection parity.
func fits(segs []string) bool {
	if flatRoots[segs[0]] {
		return len(segs) <= 2
	}
	if segs[0] != "organizations" || len(segs) > 2*len(hierarchy) {
		return false
	}
	for i := 0; i < len(segs); i += 2 {
		if segs[i] != hierarchy[i/2] {
			return false
		}
	}
	return true
}

// IsDocPath reports whether p addresses a single document.
func IsDocPath(p string) bool {
	segs, ok := split(p)
	return ok && len(segs)%2 == 0 && fits(segs)
}

// IsCollectionPath reports whether p addresses a collection.
func IsCollectionPath(p string) bool {
	segs, ok := split(p)
	return ok && len(segs)%2 == 1 && fits(segs)
}

// AsDocPath returns p unchanged if it is a valid document path.
func AsDocPath(p string) (string, error) {
	if !IsDocPath(p) {
		return "", fmt.Errorf("%w: %q is not a document path", ErrInvalidPath, p)
	}
	return p, nil
}

// AsCollectionPath returns p unchanged if it is a valid collection path.
func AsCollectionPath(p string) (string, error) {
	if !IsCollectionPath(p) {
		return "", fmt.Errorf("%w: %q is not a collection path", ErrInvalidPath, p)
	}
	return p, nil
}

// DocID returns the final segment of a path.
func DocID(p string) string {
	i := strings.LastIndexByte(p, '/')
	return p[i+1:]
}

// CollectionGroup returns the collection name a document belongs to,
// e.g. "races" for organizations/o/series/s/events/e/races/r.
func CollectionGroup(docPath string) string {
	segs := strings.Split(docPath, "/")
	if len(segs) < 2 {
		return ""
	}
	return segs[len(segs)-2]
}

// ParentCollection strips the final id segment, yielding the collection
// that contains the document.
func ParentCollection(docPath string) string {
	i := strings.LastIndexByte(docPath, '/')
	if i < 0 {
		return ""
	}
	return docPath[:i]
}

// ParentDoc strips the trailing collection and id segments, yielding the
// document that owns the sub-collection. ok is false at the hierarchy root.
func ParentDoc(docPath string) (parent string, ok bool) {
	segs := strings.Split(docPath, "/")
	if len(segs) <= 2 {
		return "", false
	}
	return strings.Join(segs[:len(segs)-2], "/"), true
}

// RootDoc returns the two-segment root document path (the owning
// organization or user) for any document path.
func RootDoc(docPath string) string {
	segs := strings.Split(docPath, "/")
	if len(segs) < 2 {
		return docPath
	}
	return segs[0] + "/" + segs[1]
}

// SubCollectionPath appends a single sub-collection name to a document path.
func SubCollectionPath(docPath, child string) (string, error) {
	if strings.ContainsRune(child, '/') {
		return "", fmt.Errorf("%w: child path cannot contain %q", ErrInvalidPath, "/")
	}
	p := docPath + "/" + child
	return AsCollectionPath(p)
}

// IsURLPath reports whether p is a valid compact URL path: up to six
// instance ids, or user/{id}, optionally behind a "view" prefix.
func IsURLPath(p string) bool {
	segs, ok := split(p)
	if !ok {
		return false
	}
	if segs[0] == "view" {
		segs = segs[1:]
		if len(segs) == 0 {
			return false
		}
	}
	if segs[0] == "user" {
		return len(segs) == 2
	}
	return len(segs) <= len(hierarchy)
}

// AsURLPath returns p unchanged if it is a valid URL path.
func AsURLPath(p string) (string, error) {
	if !IsURLPath(p) {
		return "", fmt.Errorf("%w: %q is not a url path", ErrInvalidPath, p)
	}
	return p, nil
}

// ToDocPath expands a URL path into the full document path.
func ToDocPath(urlPath string) (string, error) {
	p, err := AsURLPath(urlPath)
	if err != nil {
		return "", err
	}
	segs := strings.Split(p, "/")
	if segs[0] == "view" {
		segs = segs[1:]
	}
	if segs[0] == "user" {
		return "users/" + segs[1], nil
	}
	out := make([]string, 0, 2*len(segs))
	for i, id := range segs {
		out = append(out, hierarchy[i], id)
	}
	return strings.Join(out, "/"), nil
}

// ToURLPath compacts a document path into its URL form.
func ToURLPath(docPath string) (string, error) {
	p, err := AsDocPath(docPath)
	if err != nil {
		return "", err
	}
	segs := strings.Split(p, "/")
	if segs[0] == "users" {
		return "user/" + segs[1], nil
	}
	ids := make([]string, 0, len(segs)/2)
	for i := 1; i < len(segs); i += 2 {
		ids = append(ids, segs[i])
	}
	return strings.Join(ids, "/"), nil
}
