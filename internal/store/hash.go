package store

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/jward/trellis/internal/model"
	"github.com/jward/trellis/internal/modifier"
)

// ContentHash returns the hex SHA-256 of a file's contents.
func ContentHash(content []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(content))
}

// ComputeSignatureHash computes a deterministic hash of a class's declared
// shape: kind, modifiers, supertypes, fields, methods and property metadata.
// Member order matters because augmentation output follows declaration order.
// Source file and validity do not affect the hash.
func ComputeSignatureHash(c *model.Class) string {
	h := sha256.New()

	fmt.Fprintf(h, "name:%s\n", c.QualifiedName)
	fmt.Fprintf(h, "kind:%s\n", c.Kind)
	fmt.Fprintf(h, "modifiers:%d\n", modifier.Encode(c.Modifiers))
	fmt.Fprintf(h, "compiled:%v extensible:%v\n", c.Compiled, c.Extensible)
	fmt.Fprintf(h, "super:%s\n", c.Super)
	fmt.Fprintf(h, "interfaces:%s\n", strings.Join(c.Interfaces, ","))
	fmt.Fprintf(h, "imports:%s\n", strings.Join(c.Imports, ","))

	for _, f := range c.Fields {
		fmt.Fprintf(h, "field:%s:%s:%d\n", f.Name, f.Type, modifier.Encode(f.Modifiers))
		if p := f.Property; p != nil {
			fmt.Fprintf(h, "property:%v:%d:%v:%d:%v\n",
				p.Read.Exposed, p.Read.Visibility, p.Write.Exposed, p.Write.Visibility, p.Mutable)
		}
		for _, a := range f.Annotations {
			fmt.Fprintf(h, "annotation:%s:%s\n", a.Name, a.Text)
		}
	}
	for _, m := range c.Methods {
		fmt.Fprintf(h, "method:%s:%s:%d\n", m.Signature(), m.ReturnType, modifier.Encode(m.Modifiers))
		for _, a := range m.Annotations {
			fmt.Fprintf(h, "annotation:%s:%s\n", a.Name, a.Text)
		}
		if t := m.Tag; t != nil {
			name, flags := "<nil>", "<nil>"
			if t.Name != nil {
				name = *t.Name
			}
			if t.Flags != nil {
				flags = fmt.Sprint(*t.Flags)
			}
			fmt.Fprintf(h, "tag:%s:%s\n", name, flags)
			for _, a := range t.Annotations {
				fmt.Fprintf(h, "tag-annotation:%s:%s\n", a.QualifiedName, a.Text)
			}
		}
	}

	return fmt.Sprintf("%x", h.Sum(nil))
}
