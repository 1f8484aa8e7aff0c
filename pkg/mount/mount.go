// Package mount appends rendered fragments to elements of a parsed HTML page.
package mount

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// DefaultContainerClass marks the container used when no element id matches.
const DefaultContainerClass = "kn-scenes"

// Parse reads a full HTML document.
func Parse(r io.Reader) (*html.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("mount: parse page: %w", err)
	}
	return doc, nil
}

// RenderTo writes the page back out as HTML.
func RenderTo(w io.Writer, page *html.Node) error {
	if page == nil {
		return errors.New("mount: page is nil")
	}
	return html.Render(w, page)
}

// Mount appends fragment to the element whose id is elementID. When elementID
// is empty or matches nothing, the first element carrying
// DefaultContainerClass is used. It reports false, with no error, when neither
// exists. Calls append; mounting twice duplicates the fragment.
func Mount(page *html.Node, fragment, elementID string) (bool, error) {
	return MountIn(page, fragment, elementID, DefaultContainerClass)
}

// MountIn is Mount with a caller-chosen fallback container class.
func MountIn(page *html.Node, fragment, elementID, containerClass string) (bool, error) {
	if page == nil {
		return false, errors.New("mount: page is nil")
	}

	target := Target(page, elementID, containerClass)
	if target == nil {
		return false, nil
	}

	nodes, err := html.ParseFragment(strings.NewReader(fragment), target)
	if err != nil {
		return false, fmt.Errorf("mount: parse fragment: %w", err)
	}
	for _, node := range nodes {
		if node.Parent != nil {
			node.Parent.RemoveChild(node)
		}
		target.AppendChild(node)
	}
	return true, nil
}

// Target returns the element Mount would append to, or nil.
func Target(page *html.Node, elementID, containerClass string) *html.Node {
	if id := strings.TrimSpace(elementID); id != "" {
		if node := find(page, func(n *html.Node) bool { return attr(n, "id") == id }); node != nil {
			return node
		}
	}
	if containerClass == "" {
		return nil
	}
	return find(page, func(n *html.Node) bool {
		return slices.Contains(strings.Fields(attr(n, "class")), containerClass)
	})
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := find(child, match); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}
