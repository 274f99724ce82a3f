package runtime

import (
	"context"
	"fmt"
	"io"

	"github.com/risor-io/risor/object"

	"github.com/jward/trellis/internal/modifier"
)

// makeModifierFlagsFn creates the "modifier_flags" host function.
//
// modifier_flags(["public", "static"]) → int
func makeModifierFlagsFn() *object.Builtin {
	return object.NewBuiltin("modifier_flags", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("modifier_flags", 1, len(args))
		}
		set, err := toModifierSet(args[0])
		if err != nil {
			return object.Errorf("modifier_flags: %v", err)
		}
		return object.NewInt(modifier.Encode(set))
	})
}

// makeModifierNamesFn creates the "modifier_names" host function.
//
// modifier_names(9) → ["public", "static"]
func makeModifierNamesFn() *object.Builtin {
	return object.NewBuiltin("modifier_names", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("modifier_names", 1, len(args))
		}
		mask, err := toInt64(args[0])
		if err != nil {
			return object.Errorf("modifier_names: %v", err)
		}
		return stringsToList(modifier.Decode(mask).Names())
	})
}

// toModifierSet accepts a bitmask or a list of keywords. Unknown keywords
// are an error so that typos in stub scripts surface.
func toModifierSet(obj object.Object) (modifier.Set, error) {
	switch v := obj.(type) {
	case *object.Int:
		return modifier.Decode(v.Value()), nil
	case *object.List:
		var mods []modifier.Modifier
		for _, item := range v.Value() {
			name, err := toString(item)
			if err != nil {
				return nil, err
			}
			m, ok := modifier.Parse(name)
			if !ok {
				return nil, fmt.Errorf("unknown modifier %q", name)
			}
			mods = append(mods, m)
		}
		return modifier.NewSet(mods...), nil
	}
	return nil, fmt.Errorf("expected int or list of modifier names, got %s", obj.Type())
}

func stringsToList(values []string) object.Object {
	items := make([]object.Object, len(values))
	for i, v := range values {
		items[i] = object.NewString(v)
	}
	return object.NewList(items)
}

// logObject provides log.Info/Warn/Error methods for Risor scripts.
type logObject struct {
	prefix string
	out    io.Writer
}

func (l *logObject) Info(msg string) {
	fmt.Fprintf(l.out, "[%s] INFO: %s\n", l.prefix, msg)
}

func (l *logObject) Warn(msg string) {
	fmt.Fprintf(l.out, "[%s] WARN: %s\n", l.prefix, msg)
}

func (l *logObject) Error(msg string) {
	fmt.Fprintf(l.out, "[%s] ERROR: %s\n", l.prefix, msg)
}
