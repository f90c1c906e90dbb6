package threemf

import "encoding/xml"

// Published 3MF core namespaces, in probing order after the root's own.
const (
	NamespaceMicrosoft = "http://schemas.microsoft.com/3dmanufacturing/core/2015/02"
	NamespaceOpenXML   = "http://schemas.openxmlformats.org/3dmanufacturing/core/2015/02"
)

// node is a generic XML element tree. Element names keep their resolved
// namespace URI in XMLName.Space.
type node struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Nodes   []node     `xml:",any"`
}

// attr returns the value of an unqualified attribute.
func (n *node) attr(local string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Space == "" && a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// namespaces is the fixed, ordered list of candidates tried for every lookup.
// The empty string stands for "no namespace".
type namespaces []string

func candidates(rootSpace string) namespaces {
	ns := make(namespaces, 0, 4)
	if rootSpace != "" {
		ns = append(ns, rootSpace)
	}
	return append(ns, NamespaceMicrosoft, NamespaceOpenXML, "")
}

// child returns the first direct child named local under the first
// namespace candidate that has one.
func (ns namespaces) child(n *node, local string) *node {
	for _, space := range ns {
		for i := range n.Nodes {
			c := &n.Nodes[i]
			if c.XMLName.Local == local && c.XMLName.Space == space {
				return c
			}
		}
	}
	return nil
}

// children returns all direct children named local under the first
// namespace candidate that yields any.
func (ns namespaces) children(n *node, local string) []*node {
	for _, space := range ns {
		var out []*node
		for i := range n.Nodes {
			c := &n.Nodes[i]
			if c.XMLName.Local == local && c.XMLName.Space == space {
				out = append(out, c)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}
