package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// formatClassesText formats CLIClass rows as aligned columns.
func formatClassesText(w io.Writer, classes []CLIClass) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tMODULE\tCOMPILED\tFIELDS\tMETHODS\tPROPERTIES")
	for _, c := range classes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%d\t%d\t%s\n",
			c.Name, c.Kind, dash(c.Module), c.Compiled, c.Fields, c.Methods, onOff(c.FeatureEnabled))
	}
	tw.Flush()
}

// formatAugmentText formats synthetic members as Java-like declarations.
func formatAugmentText(w io.Writer, a CLIAugment) {
	fmt.Fprintf(w, "%s (%s)\n", a.Class, a.Kind)
	fmt.Fprintf(w, "Properties: %s (%s)\n", onOff(a.FeatureEnabled), a.Reason)
	if !a.IndexReady {
		fmt.Fprintln(w, "Index: not ready")
	}
	if len(a.Members) == 0 {
		return
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DECLARATION\tORIGIN\tNAVIGATES TO")
	for _, m := range a.Members {
		decl := strings.TrimSpace(strings.Join(m.Modifiers, " ") + " " + m.Type + " " + m.Name)
		origin := m.Origin
		if m.Kind == "method" {
			decl += "(" + strings.Join(m.Params, ", ") + ")"
			origin = m.Accessor + " " + m.Field
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", decl, origin, m.Navigation)
	}
	tw.Flush()
}

// formatOperatorText formats an operator resolution.
func formatOperatorText(w io.Writer, op CLIOperator) {
	fmt.Fprintf(w, "Expression: %s\n", op.Expression)
	fmt.Fprintf(w, "Category:   %s\n", op.Category)
	types := op.LeftType
	if op.RightType != "" {
		types += ", " + op.RightType
	}
	fmt.Fprintf(w, "Operands:   %s\n", types)
	if !op.Overloaded {
		fmt.Fprintln(w, "Method:     none (built-in)")
		return
	}
	static := ""
	if op.Static {
		static = " (static)"
	}
	fmt.Fprintf(w, "Method:     %s%s\n", op.Method, static)
}

// formatHierarchyText formats a class hierarchy as an indented tree.
func formatHierarchyText(w io.Writer, h CLIHierarchy) {
	fmt.Fprintln(w, h.Class)
	if len(h.Supertypes) > 0 {
		fmt.Fprintln(w, "\nSupertypes:")
		for _, r := range h.Supertypes {
			fmt.Fprintf(w, "%s%s %s (%s)\n", strings.Repeat("  ", r.Depth), r.Relation, r.Name, r.Kind)
		}
	}
	if len(h.Subtypes) > 0 {
		fmt.Fprintln(w, "\nSubtypes:")
		for _, r := range h.Subtypes {
			fmt.Fprintf(w, "  %s (%s, %s)\n", r.Name, r.Kind, r.Relation)
		}
	}
	if len(h.Unresolved) > 0 {
		fmt.Fprintln(w, "\nUnresolved:")
		for _, n := range h.Unresolved {
			fmt.Fprintf(w, "  %s\n", n)
		}
	}
}

// formatDiffText prints the unified diff, or the outline when augmentation
// adds nothing.
func formatDiffText(w io.Writer, d CLIDiff) {
	if d.Diff == "" {
		fmt.Fprintf(w, "%s: no synthetic members\n", d.Class)
		return
	}
	fmt.Fprint(w, d.Diff)
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLIClass:
		formatClassesText(w, v)
	case CLIAugment:
		formatAugmentText(w, v)
	case CLIOperator:
		formatOperatorText(w, v)
	case CLIHierarchy:
		formatHierarchyText(w, v)
	case CLIDiff:
		formatDiffText(w, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}

	// Pagination footer.
	if result.TotalCount != nil {
		count := *result.TotalCount
		shown := resultLen(result.Results)
		if shown < count {
			fmt.Fprintf(w, "\nShowing %d of %d results\n", shown, count)
		}
	}
	return nil
}

// resultLen returns the number of rows a result holds.
func resultLen(v any) int {
	switch r := v.(type) {
	case []CLIClass:
		return len(r)
	case CLIAugment:
		return len(r.Members)
	case nil:
		return 0
	default:
		return 1
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
