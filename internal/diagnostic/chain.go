package diagnostic

import (
	"fmt"
	"strings"
)

// Chain renders a nested resolution failure in the installer's textual
// convention. The simulated container uses it to fail installs with the same
// text a real container produces.
//
//	msg := NewChain("root").
//		Feature("test-io", "2.19.11").
//		Bundle("platform-io-impl", "2.19.11").
//		Package("org.apache.commons.lang", "2.6.0", "3.0.0").
//		String()
type Chain struct {
	root  string
	links []link
}

type link struct {
	requirement string
	next        string
}

// NewChain starts a failure chain at the unresolved root resource.
func NewChain(root string) *Chain {
	return &Chain{root: root}
}

// Feature adds a missing feature identity requirement.
func (c *Chain) Feature(name, version string) *Chain {
	return c.identity(name, "karaf.feature", version,
		fmt.Sprintf(`filter:="(&(osgi.identity=%s)(type=karaf.feature)(version>=%s)(version<=%s))"`, name, version, version))
}

// Bundle adds a missing bundle identity requirement.
func (c *Chain) Bundle(name, version string) *Chain {
	return c.identity(name, "osgi.bundle", version, "resolution:=mandatory")
}

func (c *Chain) identity(name, typ, version, tail string) *Chain {
	c.links = append(c.links, link{
		requirement: fmt.Sprintf(`osgi.identity; osgi.identity=%s; type=%s; version="[%s,%s]"; %s`,
			name, typ, version, version, tail),
		next: name + "/" + version,
	})
	return c
}

// Package adds a missing package requirement in [min, max).
func (c *Chain) Package(pkg, min, max string) *Chain {
	c.links = append(c.links, link{
		requirement: fmt.Sprintf(`osgi.wiring.package; filter:="(&(osgi.wiring.package=%s)(version>=%s)(!(version>=%s)))"`,
			pkg, min, max),
	})
	return c
}

// String renders the chain on one line, outermost cause first.
func (c *Chain) String() string {
	if len(c.links) == 0 {
		return "Unable to resolve " + c.root
	}

	var b strings.Builder
	resource := c.root
	for i, l := range c.links {
		if i > 0 {
			b.WriteString(" [caused by: ")
		}
		fmt.Fprintf(&b, "Unable to resolve %s: missing requirement [%s] %s", resource, resource, l.requirement)
		resource = l.next
	}
	b.WriteString(strings.Repeat("]", len(c.links)-1))
	return b.String()
}
