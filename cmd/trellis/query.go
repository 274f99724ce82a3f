package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jward/trellis"
	"github.com/spf13/cobra"
)

var (
	flagLimit    int
	flagOffset   int
	flagKind     string
	flagPackage  string
	flagModule   string
	flagCompiled string
	flagMembers  string
	flagContext  string
)

var classesCmd = &cobra.Command{
	Use:   "classes",
	Short: "List indexed classes",
	Args:  cobra.NoArgs,
	RunE:  runClasses,
}

var augmentCmd = &cobra.Command{
	Use:   "augment <class>",
	Short: "Show the synthetic fields or methods of a class",
	Long:  "Lists the members that properties add to a class. <class> is a qualified name or a unique simple name.",
	Args:  cobra.ExactArgs(1),
	RunE:  runAugment,
}

var operatorCmd = &cobra.Command{
	Use:   "operator <left> <op> <right>",
	Short: "Resolve a binary expression to its operator method",
	Long:  "Decides whether \"left op right\" calls a user-defined operator method. Operands are type names; use \"\" for a missing right operand.",
	Args:  cobra.ExactArgs(3),
	RunE:  runOperator,
}

var hierarchyCmd = &cobra.Command{
	Use:   "hierarchy <class>",
	Short: "Show supertypes and direct subtypes of a class",
	Args:  cobra.ExactArgs(1),
	RunE:  runHierarchy,
}

var diffCmd = &cobra.Command{
	Use:   "diff <class>",
	Short: "Diff a class's declared members against its augmented members",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiff,
}

func init() {
	classesCmd.Flags().IntVar(&flagLimit, "limit", 50, "pagination limit (max 500)")
	classesCmd.Flags().IntVar(&flagOffset, "offset", 0, "pagination offset")
	classesCmd.Flags().StringVar(&flagKind, "kind", "", "comma-separated class kinds: class,interface,enum,record,annotation")
	classesCmd.Flags().StringVar(&flagPackage, "package", "", "exact package name")
	classesCmd.Flags().StringVar(&flagModule, "module", "", "exact module name")
	classesCmd.Flags().StringVar(&flagCompiled, "compiled", "", "true for stub classes, false for source classes")

	augmentCmd.Flags().StringVar(&flagMembers, "kind", "method", "member kind: field|method")

	operatorCmd.Flags().StringVar(&flagContext, "context", "", "class the expression appears in")
}

// --- Helpers ---

// openEngine opens the Engine on the database from the --db flag (or default).
func openEngine() (*trellis.Engine, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting cwd: %w", err)
	}
	dbPath := resolveDBPath(findRepoRoot(cwd))
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: %s (run 'trellis index' first)", dbPath)
	}
	return trellis.New(dbPath, engineOptions()...)
}

// outputResult marshals a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(os.Stdout, result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}

// buildClassFilter creates a ClassFilter from CLI flags.
func buildClassFilter() (trellis.ClassFilter, error) {
	var f trellis.ClassFilter
	if flagKind != "" {
		for _, k := range strings.Split(flagKind, ",") {
			f.Kinds = append(f.Kinds, strings.TrimSpace(k))
		}
	}
	if flagPackage != "" {
		f.Package = &flagPackage
	}
	if flagModule != "" {
		f.Module = &flagModule
	}
	switch flagCompiled {
	case "":
	case "true":
		v := true
		f.Compiled = &v
	case "false":
		v := false
		f.Compiled = &v
	default:
		return f, fmt.Errorf("invalid --compiled %q: must be true or false", flagCompiled)
	}
	return f, nil
}

// --- Commands ---

func runClasses(cmd *cobra.Command, args []string) error {
	filter, err := buildClassFilter()
	if err != nil {
		return outputError("classes", err)
	}
	engine, err := openEngine()
	if err != nil {
		return outputError("classes", err)
	}
	defer engine.Close()

	page, err := engine.Query().Classes(filter, trellis.Pagination{Offset: flagOffset, Limit: flagLimit})
	if err != nil {
		return outputError("classes", err)
	}
	rows := make([]CLIClass, len(page.Items))
	for i, c := range page.Items {
		rows[i] = classToCLI(c)
	}
	total := page.TotalCount
	return outputResult(CLIResult{Command: "classes", Results: rows, TotalCount: &total})
}

func runAugment(cmd *cobra.Command, args []string) error {
	kind := trellis.MemberKind(flagMembers)
	engine, err := openEngine()
	if err != nil {
		return outputError("augment", err)
	}
	defer engine.Close()

	res, err := engine.Query().Augment(args[0], kind)
	if err != nil {
		return outputError("augment", err)
	}
	if res == nil {
		return outputError("augment", fmt.Errorf("class not found: %s", args[0]))
	}
	out := augmentToCLI(res)
	total := len(out.Members)
	return outputResult(CLIResult{Command: "augment", Results: out, TotalCount: &total})
}

func runOperator(cmd *cobra.Command, args []string) error {
	engine, err := openEngine()
	if err != nil {
		return outputError("operator", err)
	}
	defer engine.Close()

	res, err := engine.Query().Operator(args[0], args[1], args[2], flagContext)
	if err != nil {
		return outputError("operator", err)
	}
	return outputResult(CLIResult{Command: "operator", Results: operatorToCLI(res)})
}

func runHierarchy(cmd *cobra.Command, args []string) error {
	engine, err := openEngine()
	if err != nil {
		return outputError("hierarchy", err)
	}
	defer engine.Close()

	h, err := engine.Query().Hierarchy(args[0])
	if err != nil {
		return outputError("hierarchy", err)
	}
	if h == nil {
		return outputError("hierarchy", fmt.Errorf("class not found: %s", args[0]))
	}
	return outputResult(CLIResult{Command: "hierarchy", Results: hierarchyToCLI(h)})
}

func runDiff(cmd *cobra.Command, args []string) error {
	engine, err := openEngine()
	if err != nil {
		return outputError("diff", err)
	}
	defer engine.Close()

	d, err := engine.Query().Diff(args[0])
	if err != nil {
		return outputError("diff", err)
	}
	if d == nil {
		return outputError("diff", fmt.Errorf("class not found: %s", args[0]))
	}
	return outputResult(CLIResult{Command: "diff", Results: CLIDiff{
		Class:   d.Class,
		Added:   d.Added,
		Diff:    d.Diff,
		Outline: d.Outline,
	}})
}

// --- Conversions ---

func classToCLI(c trellis.ClassSummary) CLIClass {
	return CLIClass{
		Name:           c.QualifiedName,
		Kind:           c.Kind,
		Module:         c.Module,
		File:           c.File,
		Compiled:       c.Compiled,
		Fields:         c.Fields,
		Methods:        c.Methods,
		FeatureEnabled: c.FeatureEnabled,
	}
}

func augmentToCLI(res *trellis.AugmentResult) CLIAugment {
	out := CLIAugment{
		Class:          res.Class,
		Kind:           string(res.Kind),
		FeatureEnabled: res.Env.FeatureEnabled,
		IndexReady:     res.Env.IndexReady,
		Reason:         res.Reason,
		Members:        []CLIMember{},
	}
	for _, f := range res.Fields {
		out.Members = append(out.Members, CLIMember{
			Kind:       "field",
			Name:       f.Name,
			Type:       f.Type,
			Modifiers:  f.Modifiers.Names(),
			Origin:     string(f.Origin),
			Navigation: anchorText(f.Anchor.Class, f.Anchor.Name, f.Anchor.Signature),
		})
	}
	for _, m := range res.Methods {
		params := make([]string, len(m.Params))
		for i, p := range m.Params {
			params[i] = p.Type + " " + p.Name
		}
		out.Members = append(out.Members, CLIMember{
			Kind:       "method",
			Name:       m.Name,
			Type:       m.ReturnType,
			Params:     params,
			Modifiers:  m.Modifiers.Names(),
			Accessor:   string(m.Accessor),
			Field:      m.Field,
			Navigation: anchorText(m.Anchor.Class, m.Anchor.Name, m.Anchor.Signature),
		})
	}
	return out
}

// anchorText formats a navigation target as "Class#member".
func anchorText(class, name, signature string) string {
	if signature != "" {
		return class + "#" + signature
	}
	return class + "#" + name
}

func operatorToCLI(res *trellis.OperatorResult) CLIOperator {
	out := CLIOperator{
		Expression: res.Expression,
		Token:      res.Token,
		Category:   res.Category,
		LeftType:   res.LeftType,
		RightType:  res.RightType,
		Overloaded: res.Overloaded,
	}
	if res.Method != nil {
		out.Method = res.Method.Key()
		out.Static = res.Method.IsStatic()
	}
	return out
}

func hierarchyToCLI(h *trellis.Hierarchy) CLIHierarchy {
	out := CLIHierarchy{
		Class:      h.Class,
		Supertypes: relationsToCLI(h.Supertypes),
		Subtypes:   relationsToCLI(h.Subtypes),
		Unresolved: h.Unresolved,
	}
	return out
}

func relationsToCLI(rels []trellis.TypeRelation) []CLIRelation {
	out := make([]CLIRelation, len(rels))
	for i, r := range rels {
		out[i] = CLIRelation{Name: r.Name, Kind: r.Kind, Relation: r.Relation, Depth: r.Depth}
	}
	return out
}
