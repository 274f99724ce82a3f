package runtime

import (
	"context"
	"fmt"
	"sort"

	"github.com/risor-io/risor/object"

	"github.com/jward/trellis/internal/model"
	"github.com/jward/trellis/internal/modifier"
	"github.com/jward/trellis/internal/store"
)

// makeInsertModuleFn creates the "insert_module" host function.
//
//	insert_module({
//	    "name": "core",
//	    "version": "1.0",
//	    "dependencies": {"manifold-props": "2023.1.5"},
//	}) → int
//
// Dependencies may also be a list of {"name", "version"} maps.
func makeInsertModuleFn(ds store.DataStore, fileID *int64) *object.Builtin {
	return object.NewBuiltin("insert_module", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("insert_module", 1, len(args))
		}
		m, err := extractMap(args[0])
		if err != nil {
			return object.Errorf("insert_module: %v", err)
		}

		mod := &store.Module{
			FileID:  fileID,
			Name:    getString(m, "name"),
			Version: getString(m, "version"),
		}
		if mod.Name == "" {
			return object.Errorf("insert_module: name is required")
		}
		if v, ok := getOptionalInt64(m, "file_id"); ok {
			mod.FileID = &v
		}
		if deps, ok := m["dependencies"]; ok {
			if mod.Dependencies, err = toDependencies(deps); err != nil {
				return object.Errorf("insert_module %s: %v", mod.Name, err)
			}
		}

		id, insertErr := ds.InsertModule(mod)
		if insertErr != nil {
			return object.Errorf("insert_module: %v", insertErr)
		}
		return object.NewInt(id)
	})
}

func toDependencies(obj object.Object) ([]store.Dependency, error) {
	switch v := obj.(type) {
	case *object.Map:
		entries := v.Value()
		names := make([]string, 0, len(entries))
		for name := range entries {
			names = append(names, name)
		}
		sort.Strings(names)
		var deps []store.Dependency
		for _, name := range names {
			version, err := toString(entries[name])
			if err != nil {
				return nil, fmt.Errorf("dependency %s: %w", name, err)
			}
			deps = append(deps, store.Dependency{Name: name, Version: version})
		}
		return deps, nil
	case *object.List:
		var deps []store.Dependency
		for _, item := range v.Value() {
			m, err := extractMap(item)
			if err != nil {
				return nil, fmt.Errorf("dependency: %w", err)
			}
			deps = append(deps, store.Dependency{Name: getString(m, "name"), Version: getString(m, "version")})
		}
		return deps, nil
	}
	return nil, fmt.Errorf("dependencies: expected map or list, got %s", obj.Type())
}

// makeInsertClassFn creates the "insert_class" host function. Classes
// declared by stub scripts are compiled classes.
//
//	insert_class({
//	    "name": "lib.Account",
//	    "module": "core",
//	    "kind": "class",
//	    "modifiers": ["public"],
//	    "super": "lib.Base",
//	    "interfaces": ["java.io.Serializable"],
//	    "fields": [{"name": "id", "type": "long", "modifiers": ["private"]}],
//	    "methods": [{
//	        "name": "getName", "return_type": "String", "modifiers": 1,
//	        "params": [{"name": "n", "type": "int"}],
//	        "tag": {"name": "name", "flags": ["public"], "annotations": [...]},
//	    }],
//	}) → int
//
// A malformed tag is reported through log and leaves only its own method
// untagged; the rest of the class is still inserted.
func makeInsertClassFn(ds store.DataStore, fileID *int64, log *logObject) *object.Builtin {
	return object.NewBuiltin("insert_class", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("insert_class", 1, len(args))
		}
		m, err := extractMap(args[0])
		if err != nil {
			return object.Errorf("insert_class: %v", err)
		}
		c, err := toClass(m, log.Warn)
		if err != nil {
			return object.Errorf("insert_class: %v", err)
		}

		fid := fileID
		if v, ok := getOptionalInt64(m, "file_id"); ok {
			fid = &v
		}
		id, insertErr := ds.InsertClass(fid, c)
		if insertErr != nil {
			return object.Errorf("insert_class: %v", insertErr)
		}
		return object.NewInt(id)
	})
}

func toClass(m map[string]object.Object, warn func(string)) (*model.Class, error) {
	c := &model.Class{
		QualifiedName: getString(m, "name"),
		Package:       getString(m, "package"),
		Module:        getString(m, "module"),
		Kind:          model.ClassKind(getStringDefault(m, "kind", string(model.KindClass))),
		Super:         getString(m, "super"),
		Compiled:      true,
		Extensible:    getBoolDefault(m, "extensible", true),
		Valid:         getBoolDefault(m, "valid", true),
	}
	if c.QualifiedName == "" {
		return nil, fmt.Errorf("name is required")
	}
	if c.Package == "" {
		if i := lastDot(c.QualifiedName); i > 0 {
			c.Package = c.QualifiedName[:i]
		}
	}
	var err error
	if c.Modifiers, err = optionalModifiers(m, "modifiers"); err != nil {
		return nil, fmt.Errorf("%s: %w", c.QualifiedName, err)
	}
	if c.Interfaces, err = getStringList(m, "interfaces"); err != nil {
		return nil, fmt.Errorf("%s: %w", c.QualifiedName, err)
	}
	if c.Imports, err = getStringList(m, "imports"); err != nil {
		return nil, fmt.Errorf("%s: %w", c.QualifiedName, err)
	}

	fields, err := getMapList(m, "fields")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.QualifiedName, err)
	}
	for _, fm := range fields {
		f := &model.Field{Name: getString(fm, "name"), Type: getString(fm, "type")}
		if f.Modifiers, err = optionalModifiers(fm, "modifiers"); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", c.QualifiedName, f.Name, err)
		}
		if f.Annotations, err = toAnnotations(fm); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", c.QualifiedName, f.Name, err)
		}
		c.Fields = append(c.Fields, f)
	}

	methods, err := getMapList(m, "methods")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.QualifiedName, err)
	}
	for _, mm := range methods {
		meth, err := toMethod(c.QualifiedName, mm, warn)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.QualifiedName, err)
		}
		c.Methods = append(c.Methods, meth)
	}
	return c, nil
}

func toMethod(owner string, m map[string]object.Object, warn func(string)) (*model.Method, error) {
	meth := &model.Method{
		Owner:      owner,
		Name:       getString(m, "name"),
		ReturnType: getStringDefault(m, "return_type", "void"),
	}
	if meth.Name == "" {
		return nil, fmt.Errorf("method name is required")
	}
	var err error
	if meth.Modifiers, err = optionalModifiers(m, "modifiers"); err != nil {
		return nil, fmt.Errorf("%s: %w", meth.Name, err)
	}
	if meth.Annotations, err = toAnnotations(m); err != nil {
		return nil, fmt.Errorf("%s: %w", meth.Name, err)
	}
	if p, ok := m["params"]; ok {
		list, ok := p.(*object.List)
		if !ok {
			return nil, fmt.Errorf("%s: params: expected list, got %s", meth.Name, p.Type())
		}
		for i, item := range list.Value() {
			// A bare string is a parameter type.
			if s, ok := item.(*object.String); ok {
				meth.Params = append(meth.Params, model.Param{Name: fmt.Sprintf("arg%d", i), Type: s.Value()})
				continue
			}
			pm, err := extractMap(item)
			if err != nil {
				return nil, fmt.Errorf("%s: param %d: %w", meth.Name, i, err)
			}
			meth.Params = append(meth.Params, model.Param{Name: getString(pm, "name"), Type: getString(pm, "type")})
		}
	}
	if t, ok := m["tag"]; ok && !isNil(t) {
		tm, err := extractMap(t)
		if err != nil {
			warn(fmt.Sprintf("insert_class: %s#%s: tag ignored: %v", owner, meth.Name, err))
			return meth, nil
		}
		meth.Tag = toTag(tm, func(msg string) {
			warn(fmt.Sprintf("insert_class: %s#%s: tag %s", owner, meth.Name, msg))
		})
	}
	return meth, nil
}

// toTag keeps missing name and flags observable as nil. Invalid values are
// reported through warn and left nil as well.
func toTag(m map[string]object.Object, warn func(string)) *model.PropertyTag {
	tag := &model.PropertyTag{}
	if v, ok := m["name"]; ok && !isNil(v) {
		if name, err := toString(v); err != nil {
			warn(fmt.Sprintf("name ignored: %v", err))
		} else {
			tag.Name = &name
		}
	}
	if v, ok := m["flags"]; ok && !isNil(v) {
		if set, err := toModifierSet(v); err != nil {
			warn(fmt.Sprintf("flags ignored: %v", err))
		} else {
			flags := modifier.Encode(set)
			if i, ok := v.(*object.Int); ok {
				flags = i.Value()
			}
			tag.Flags = &flags
		}
	}
	specs, err := getMapList(m, "annotations")
	if err != nil {
		warn(fmt.Sprintf("annotations ignored: %v", err))
		return tag
	}
	for _, sm := range specs {
		tag.Annotations = append(tag.Annotations, model.AnnotationSpec{
			QualifiedName: getString(sm, "qualified_name"),
			Text:          getString(sm, "text"),
		})
	}
	return tag
}

func toAnnotations(m map[string]object.Object) ([]model.Annotation, error) {
	list, err := getMapList(m, "annotations")
	if err != nil {
		return nil, err
	}
	var out []model.Annotation
	for _, am := range list {
		out = append(out, model.Annotation{Name: getString(am, "name"), Text: getString(am, "text")})
	}
	return out, nil
}

// makeClassByNameFn creates the "class_by_name" host function.
//
// class_by_name("lib.Account") → {"name", "kind", "module", "super", "interfaces", "methods"} or nil
func makeClassByNameFn(ds store.DataStore) *object.Builtin {
	return object.NewBuiltin("class_by_name", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("class_by_name", 1, len(args))
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("class_by_name: %v", err)
		}
		c, err := ds.ClassByName(name)
		if err != nil {
			return object.Errorf("class_by_name: %v", err)
		}
		if c == nil {
			return object.Nil
		}
		methods := make([]string, len(c.Methods))
		for i, m := range c.Methods {
			methods[i] = m.Signature()
		}
		return object.NewMap(map[string]object.Object{
			"name":       object.NewString(c.QualifiedName),
			"kind":       object.NewString(string(c.Kind)),
			"module":     object.NewString(c.Module),
			"super":      object.NewString(c.Super),
			"interfaces": stringsToList(c.Interfaces),
			"methods":    stringsToList(methods),
		})
	})
}

// --- Map extraction helpers ---

func extractMap(obj object.Object) (map[string]object.Object, error) {
	m, ok := obj.(*object.Map)
	if !ok {
		return nil, fmt.Errorf("expected map, got %s", obj.Type())
	}
	return m.Value(), nil
}

func isNil(obj object.Object) bool {
	if obj == nil {
		return true
	}
	_, ok := obj.(*object.NilType)
	return ok
}

func getString(m map[string]object.Object, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	if s, ok := v.(*object.String); ok {
		return s.Value()
	}
	return ""
}

func getStringDefault(m map[string]object.Object, key, def string) string {
	v := getString(m, key)
	if v == "" {
		return def
	}
	return v
}

func getOptionalInt64(m map[string]object.Object, key string) (int64, bool) {
	v, ok := m[key]
	if !ok || isNil(v) {
		return 0, false
	}
	if i, ok := v.(*object.Int); ok {
		return i.Value(), true
	}
	if f, ok := v.(*object.Float); ok {
		return int64(f.Value()), true
	}
	return 0, false
}

func getBoolDefault(m map[string]object.Object, key string, def bool) bool {
	v, ok := m[key]
	if !ok {
		return def
	}
	if b, ok := v.(*object.Bool); ok {
		return b.Value()
	}
	return def
}

func getStringList(m map[string]object.Object, key string) ([]string, error) {
	v, ok := m[key]
	if !ok || isNil(v) {
		return nil, nil
	}
	list, ok := v.(*object.List)
	if !ok {
		return nil, fmt.Errorf("%s: expected list, got %s", key, v.Type())
	}
	var out []string
	for _, item := range list.Value() {
		s, err := toString(item)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func getMapList(m map[string]object.Object, key string) ([]map[string]object.Object, error) {
	v, ok := m[key]
	if !ok || isNil(v) {
		return nil, nil
	}
	list, ok := v.(*object.List)
	if !ok {
		return nil, fmt.Errorf("%s: expected list, got %s", key, v.Type())
	}
	var out []map[string]object.Object
	for _, item := range list.Value() {
		im, err := extractMap(item)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out = append(out, im)
	}
	return out, nil
}

func optionalModifiers(m map[string]object.Object, key string) (modifier.Set, error) {
	v, ok := m[key]
	if !ok || isNil(v) {
		return nil, nil
	}
	return toModifierSet(v)
}

func toInt64(obj object.Object) (int64, error) {
	if i, ok := obj.(*object.Int); ok {
		return i.Value(), nil
	}
	if f, ok := obj.(*object.Float); ok {
		return int64(f.Value()), nil
	}
	return 0, fmt.Errorf("expected int, got %s", obj.Type())
}

func toString(obj object.Object) (string, error) {
	if s, ok := obj.(*object.String); ok {
		return s.Value(), nil
	}
	return "", fmt.Errorf("expected string, got %s", obj.Type())
}

func lastDot(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}
