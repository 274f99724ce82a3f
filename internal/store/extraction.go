package store

import (
	"database/sql"
	"fmt"

	"github.com/jward/trellis/internal/model"
	"github.com/jward/trellis/internal/modifier"
)

// --- File operations ---

func (s *Store) InsertFile(f *File) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO files (path, language, hash, last_indexed) VALUES (?, ?, ?, ?)",
		f.Path, f.Language, f.Hash, f.LastIndexed,
	)
	if err != nil {
		return 0, fmt.Errorf("insert file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	f.ID = id
	return id, nil
}

const fileCols = "id, path, language, hash, last_indexed"

func scanFile(scanner interface{ Scan(...any) error }) (*File, error) {
	f := &File{}
	var hash sql.NullString
	var indexed sql.NullTime
	if err := scanner.Scan(&f.ID, &f.Path, &f.Language, &hash, &indexed); err != nil {
		return nil, err
	}
	f.Hash = hash.String
	f.LastIndexed = indexed.Time
	return f, nil
}

func (s *Store) FileByPath(path string) (*File, error) {
	f, err := scanFile(s.db.QueryRow("SELECT "+fileCols+" FROM files WHERE path = ?", path))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return f, nil
}

func (s *Store) FilesByLanguage(language string) ([]*File, error) {
	return s.queryFiles("SELECT "+fileCols+" FROM files WHERE language = ? ORDER BY path", language)
}

// Files returns every indexed file, ordered by path.
func (s *Store) Files() ([]*File, error) {
	return s.queryFiles("SELECT " + fileCols + " FROM files ORDER BY path")
}

func (s *Store) queryFiles(query string, args ...any) ([]*File, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// --- Module operations ---

// InsertModule stores a module and its dependencies.
func (s *Store) InsertModule(m *Module) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("insert module: begin: %w", err)
	}
	defer tx.Rollback()
	id, err := insertModuleTx(tx, m)
	if err != nil {
		return 0, fmt.Errorf("insert module %q: %w", m.Name, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("insert module: commit: %w", err)
	}
	m.ID = id
	return id, nil
}

// ModuleByName returns the most recently indexed module called name, or nil.
func (s *Store) ModuleByName(name string) (*Module, error) {
	mods, err := s.queryModules("SELECT id, file_id, name, version FROM modules WHERE name = ? ORDER BY id DESC LIMIT 1", name)
	if err != nil {
		return nil, fmt.Errorf("module by name: %w", err)
	}
	if len(mods) == 0 {
		return nil, nil
	}
	return mods[0], nil
}

// Modules returns all modules ordered by name.
func (s *Store) Modules() ([]*Module, error) {
	mods, err := s.queryModules("SELECT id, file_id, name, version FROM modules ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("modules: %w", err)
	}
	return mods, nil
}

func (s *Store) queryModules(query string, args ...any) ([]*Module, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	var mods []*Module
	for rows.Next() {
		m := &Module{}
		var fileID sql.NullInt64
		var version sql.NullString
		if err := rows.Scan(&m.ID, &fileID, &m.Name, &version); err != nil {
			rows.Close()
			return nil, err
		}
		m.FileID = int64Ptr(fileID)
		m.Version = version.String
		mods = append(mods, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, m := range mods {
		deps, err := s.db.Query("SELECT name, version FROM module_dependencies WHERE module_id = ? ORDER BY id", m.ID)
		if err != nil {
			return nil, err
		}
		for deps.Next() {
			var d Dependency
			var version sql.NullString
			if err := deps.Scan(&d.Name, &version); err != nil {
				deps.Close()
				return nil, err
			}
			d.Version = version.String
			m.Dependencies = append(m.Dependencies, d)
		}
		deps.Close()
		if err := deps.Err(); err != nil {
			return nil, err
		}
	}
	return mods, nil
}

// --- Class operations ---

// InsertClass stores a class with all of its members in one transaction.
func (s *Store) InsertClass(fileID *int64, c *model.Class) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("insert class: begin: %w", err)
	}
	defer tx.Rollback()
	id, err := insertClassTx(tx, fileID, c)
	if err != nil {
		return 0, fmt.Errorf("insert class %q: %w", c.QualifiedName, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("insert class: commit: %w", err)
	}
	return id, nil
}

// ClassByName returns the most recently indexed class with this qualified
// name, or nil.
func (s *Store) ClassByName(qualifiedName string) (*model.Class, error) {
	classes, err := s.loadClasses("WHERE c.qualified_name = ? ORDER BY c.id DESC LIMIT 1", qualifiedName)
	if err != nil {
		return nil, fmt.Errorf("class by name: %w", err)
	}
	if len(classes) == 0 {
		return nil, nil
	}
	return classes[0], nil
}

// ClassesByFile returns the classes extracted from a file in insertion order.
func (s *Store) ClassesByFile(fileID int64) ([]*model.Class, error) {
	classes, err := s.loadClasses("WHERE c.file_id = ? ORDER BY c.id", fileID)
	if err != nil {
		return nil, fmt.Errorf("classes by file: %w", err)
	}
	return classes, nil
}

// LoadClasses returns every class in the index in insertion order.
func (s *Store) LoadClasses() ([]*model.Class, error) {
	classes, err := s.loadClasses("ORDER BY c.id")
	if err != nil {
		return nil, fmt.Errorf("load classes: %w", err)
	}
	return classes, nil
}

// ClassSignatureHashes maps each class's qualified name to its stored
// signature hash.
func (s *Store) ClassSignatureHashes() (map[string]string, error) {
	rows, err := s.db.Query("SELECT qualified_name, signature_hash FROM classes")
	if err != nil {
		return nil, fmt.Errorf("class signature hashes: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var name string
		var hash sql.NullString
		if err := rows.Scan(&name, &hash); err != nil {
			return nil, fmt.Errorf("scan signature hash: %w", err)
		}
		out[name] = hash.String
	}
	return out, rows.Err()
}

// InvalidateClasses marks the classes of a file stale without removing them.
func (s *Store) InvalidateClasses(fileID int64) error {
	if _, err := s.db.Exec("UPDATE classes SET valid = FALSE WHERE file_id = ?", fileID); err != nil {
		return fmt.Errorf("invalidate classes: %w", err)
	}
	return nil
}

// loadClasses assembles full class models for the class rows selected by
// clause. Child tables are read in one query each and attached by id.
func (s *Store) loadClasses(clause string, args ...any) ([]*model.Class, error) {
	rows, err := s.db.Query(
		`SELECT c.id, c.qualified_name, c.package, c.module, c.kind, c.modifiers,
			c.compiled, c.extensible, c.valid, f.path
		 FROM classes c LEFT JOIN files f ON f.id = c.file_id `+clause, args...)
	if err != nil {
		return nil, err
	}
	var (
		classes []*model.Class
		byID    = make(map[int64]*model.Class)
	)
	for rows.Next() {
		var (
			id                   int64
			pkg, module, path    sql.NullString
			kind                 string
			mods                 int64
			compiled, ext, valid bool
			c                    = &model.Class{}
		)
		if err := rows.Scan(&id, &c.QualifiedName, &pkg, &module, &kind, &mods, &compiled, &ext, &valid, &path); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan class: %w", err)
		}
		c.Package = pkg.String
		c.Module = module.String
		c.File = path.String
		c.Kind = model.ClassKind(kind)
		c.Modifiers = modifier.Decode(mods)
		c.Compiled, c.Extensible, c.Valid = compiled, ext, valid
		classes = append(classes, c)
		byID[id] = c
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(classes) == 0 {
		return nil, nil
	}

	// Child queries select by the same clause so large indexes never hit
	// SQLite's bound-parameter limit.
	in := "(SELECT c.id FROM classes c LEFT JOIN files f ON f.id = c.file_id " + clause + ")"
	idArgs := args

	if err := s.attachSupertypes(byID, in, idArgs); err != nil {
		return nil, err
	}
	if err := s.attachImports(byID, in, idArgs); err != nil {
		return nil, err
	}
	fieldsByID, err := s.attachFields(byID, in, idArgs)
	if err != nil {
		return nil, err
	}
	methodsByID, err := s.attachMethods(byID, in, idArgs)
	if err != nil {
		return nil, err
	}
	if err := s.attachAnnotations(fieldsByID, methodsByID, in, idArgs); err != nil {
		return nil, err
	}
	if err := s.attachTags(methodsByID, in, idArgs); err != nil {
		return nil, err
	}
	return classes, nil
}

func (s *Store) attachSupertypes(byID map[int64]*model.Class, in string, args []any) error {
	rows, err := s.db.Query("SELECT class_id, name, relation FROM class_supertypes WHERE class_id IN "+in+" ORDER BY class_id, ordinal", args...)
	if err != nil {
		return fmt.Errorf("query supertypes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var name, relation string
		if err := rows.Scan(&id, &name, &relation); err != nil {
			return fmt.Errorf("scan supertype: %w", err)
		}
		c := byID[id]
		if c == nil {
			continue
		}
		if relation == relationExtends && c.Kind != model.KindInterface {
			c.Super = name
		} else {
			c.Interfaces = append(c.Interfaces, name)
		}
	}
	return rows.Err()
}

func (s *Store) attachImports(byID map[int64]*model.Class, in string, args []any) error {
	rows, err := s.db.Query("SELECT class_id, name FROM class_imports WHERE class_id IN "+in+" ORDER BY class_id, ordinal", args...)
	if err != nil {
		return fmt.Errorf("query imports: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return fmt.Errorf("scan import: %w", err)
		}
		if c := byID[id]; c != nil {
			c.Imports = append(c.Imports, name)
		}
	}
	return rows.Err()
}

func (s *Store) attachFields(byID map[int64]*model.Class, in string, args []any) (map[int64]*model.Field, error) {
	rows, err := s.db.Query(
		`SELECT id, class_id, name, type_expr, modifiers, is_property,
			read_exposed, read_visibility, write_exposed, write_visibility, mutable
		 FROM fields WHERE class_id IN `+in+` ORDER BY class_id, ordinal`, args...)
	if err != nil {
		return nil, fmt.Errorf("query fields: %w", err)
	}
	defer rows.Close()
	out := make(map[int64]*model.Field)
	for rows.Next() {
		var (
			id, classID, mods      int64
			typ                    sql.NullString
			isProp, rExp, wExp, mu bool
			rVis, wVis             int
			f                      = &model.Field{}
		)
		if err := rows.Scan(&id, &classID, &f.Name, &typ, &mods, &isProp, &rExp, &rVis, &wExp, &wVis, &mu); err != nil {
			return nil, fmt.Errorf("scan field: %w", err)
		}
		f.Type = typ.String
		f.Modifiers = modifier.Decode(mods)
		if isProp {
			f.Property = &model.PropertyDeclaration{
				Read:    model.Access{Exposed: rExp, Visibility: modifier.Modifier(rVis)},
				Write:   model.Access{Exposed: wExp, Visibility: modifier.Modifier(wVis)},
				Mutable: mu,
			}
		}
		c := byID[classID]
		if c == nil {
			continue
		}
		c.Fields = append(c.Fields, f)
		out[id] = f
	}
	return out, rows.Err()
}

func (s *Store) attachMethods(byID map[int64]*model.Class, in string, args []any) (map[int64]*model.Method, error) {
	rows, err := s.db.Query("SELECT id, class_id, name, return_type, modifiers FROM methods WHERE class_id IN "+in+" ORDER BY class_id, ordinal", args...)
	if err != nil {
		return nil, fmt.Errorf("query methods: %w", err)
	}
	out := make(map[int64]*model.Method)
	for rows.Next() {
		var id, classID, mods int64
		var ret sql.NullString
		m := &model.Method{}
		if err := rows.Scan(&id, &classID, &m.Name, &ret, &mods); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan method: %w", err)
		}
		c := byID[classID]
		if c == nil {
			continue
		}
		m.Owner = c.QualifiedName
		m.ReturnType = ret.String
		m.Modifiers = modifier.Decode(mods)
		c.Methods = append(c.Methods, m)
		out[id] = m
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	params, err := s.db.Query(
		`SELECT p.method_id, p.name, p.type_expr FROM method_params p
		 JOIN methods m ON m.id = p.method_id
		 WHERE m.class_id IN `+in+` ORDER BY p.method_id, p.ordinal`, args...)
	if err != nil {
		return nil, fmt.Errorf("query params: %w", err)
	}
	defer params.Close()
	for params.Next() {
		var methodID int64
		var name, typ sql.NullString
		if err := params.Scan(&methodID, &name, &typ); err != nil {
			return nil, fmt.Errorf("scan param: %w", err)
		}
		m := out[methodID]
		if m == nil {
			continue
		}
		m.Params = append(m.Params, model.Param{Name: name.String, Type: typ.String})
	}
	return out, params.Err()
}

func (s *Store) attachAnnotations(fields map[int64]*model.Field, methods map[int64]*model.Method, in string, args []any) error {
	rows, err := s.db.Query(
		`SELECT a.field_id, a.method_id, a.name, a.text FROM annotations a
		 LEFT JOIN fields f ON f.id = a.field_id
		 LEFT JOIN methods m ON m.id = a.method_id
		 WHERE f.class_id IN `+in+` OR m.class_id IN `+in+`
		 ORDER BY a.id`, append(append([]any{}, args...), args...)...)
	if err != nil {
		return fmt.Errorf("query annotations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var fieldID, methodID sql.NullInt64
		var a model.Annotation
		var text sql.NullString
		if err := rows.Scan(&fieldID, &methodID, &a.Name, &text); err != nil {
			return fmt.Errorf("scan annotation: %w", err)
		}
		a.Text = text.String
		switch {
		case fieldID.Valid:
			if f := fields[fieldID.Int64]; f != nil {
				f.Annotations = append(f.Annotations, a)
			}
		case methodID.Valid:
			if m := methods[methodID.Int64]; m != nil {
				m.Annotations = append(m.Annotations, a)
			}
		}
	}
	return rows.Err()
}

func (s *Store) attachTags(methods map[int64]*model.Method, in string, args []any) error {
	rows, err := s.db.Query(
		`SELECT t.id, t.method_id, t.name, t.flags FROM property_tags t
		 JOIN methods m ON m.id = t.method_id
		 WHERE m.class_id IN `+in+` ORDER BY t.id`, args...)
	if err != nil {
		return fmt.Errorf("query property tags: %w", err)
	}
	tags := make(map[int64]*model.PropertyTag)
	for rows.Next() {
		var tagID, methodID int64
		var name sql.NullString
		var flags sql.NullInt64
		if err := rows.Scan(&tagID, &methodID, &name, &flags); err != nil {
			rows.Close()
			return fmt.Errorf("scan property tag: %w", err)
		}
		tag := &model.PropertyTag{Name: stringPtr(name), Flags: int64Ptr(flags)}
		if m := methods[methodID]; m != nil {
			m.Tag = tag
		}
		tags[tagID] = tag
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if len(tags) == 0 {
		return nil
	}

	specs, err := s.db.Query(
		`SELECT a.tag_id, a.qualified_name, a.text FROM property_tag_annotations a
		 JOIN property_tags t ON t.id = a.tag_id
		 JOIN methods m ON m.id = t.method_id
		 WHERE m.class_id IN `+in+` ORDER BY a.tag_id, a.ordinal`, args...)
	if err != nil {
		return fmt.Errorf("query tag annotations: %w", err)
	}
	defer specs.Close()
	for specs.Next() {
		var tagID int64
		var qn, text sql.NullString
		if err := specs.Scan(&tagID, &qn, &text); err != nil {
			return fmt.Errorf("scan tag annotation: %w", err)
		}
		if tag := tags[tagID]; tag != nil {
			tag.Annotations = append(tag.Annotations, model.AnnotationSpec{QualifiedName: qn.String, Text: text.String})
		}
	}
	return specs.Err()
}
