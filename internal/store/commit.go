package store

import (
	"database/sql"
	"fmt"

	"github.com/jward/trellis/internal/model"
	"github.com/jward/trellis/internal/modifier"
)

// Supertype relations stored in class_supertypes.relation.
const (
	relationExtends    = "extends"
	relationImplements = "implements"
)

// CommitBatch inserts all buffered data from a BatchedStore into SQLite
// within a single transaction. Modules go first so that classes committed
// in the same batch can be matched to them by name.
func (s *Store) CommitBatch(batch *BatchedStore) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	batch.mu.Lock()
	modules := append([]Module(nil), batch.Modules...)
	classes := append([]BufferedClass(nil), batch.Classes...)
	batch.mu.Unlock()

	for i := range modules {
		if _, err := insertModuleTx(tx, &modules[i]); err != nil {
			return fmt.Errorf("commit batch: module %q: %w", modules[i].Name, err)
		}
	}
	for _, bc := range classes {
		if _, err := insertClassTx(tx, bc.FileID, bc.Class); err != nil {
			return fmt.Errorf("commit batch: class %q: %w", bc.Class.QualifiedName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: commit: %w", err)
	}
	return nil
}

func insertModuleTx(tx *sql.Tx, m *Module) (int64, error) {
	res, err := tx.Exec("INSERT INTO modules (file_id, name, version) VALUES (?, ?, ?)",
		nullInt64(m.FileID), m.Name, m.Version)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	for _, d := range m.Dependencies {
		if _, err := tx.Exec("INSERT INTO module_dependencies (module_id, name, version) VALUES (?, ?, ?)",
			id, d.Name, d.Version); err != nil {
			return 0, fmt.Errorf("dependency %q: %w", d.Name, err)
		}
	}
	return id, nil
}

// insertClassTx writes a class row and every member table that hangs off it.
func insertClassTx(tx *sql.Tx, fileID *int64, c *model.Class) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO classes (file_id, qualified_name, package, module, kind, modifiers,
			compiled, extensible, valid, signature_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullInt64(fileID), c.QualifiedName, c.Package, c.Module, string(c.Kind),
		modifier.Encode(c.Modifiers), c.Compiled, c.Extensible, c.Valid, ComputeSignatureHash(c),
	)
	if err != nil {
		return 0, err
	}
	classID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	ordinal := 0
	if c.Super != "" {
		if err := insertSupertypeTx(tx, classID, c.Super, relationExtends, ordinal); err != nil {
			return 0, err
		}
		ordinal++
	}
	relation := relationImplements
	if c.IsInterface() {
		relation = relationExtends
	}
	for _, iface := range c.Interfaces {
		if err := insertSupertypeTx(tx, classID, iface, relation, ordinal); err != nil {
			return 0, err
		}
		ordinal++
	}
	for i, imp := range c.Imports {
		if _, err := tx.Exec("INSERT INTO class_imports (class_id, name, ordinal) VALUES (?, ?, ?)",
			classID, imp, i); err != nil {
			return 0, fmt.Errorf("import %q: %w", imp, err)
		}
	}

	for i, f := range c.Fields {
		if err := insertFieldTx(tx, classID, f, i); err != nil {
			return 0, fmt.Errorf("field %q: %w", f.Name, err)
		}
	}
	for i, m := range c.Methods {
		if err := insertMethodTx(tx, classID, m, i); err != nil {
			return 0, fmt.Errorf("method %q: %w", m.Signature(), err)
		}
	}
	return classID, nil
}

func insertSupertypeTx(tx *sql.Tx, classID int64, name, relation string, ordinal int) error {
	_, err := tx.Exec("INSERT INTO class_supertypes (class_id, name, relation, ordinal) VALUES (?, ?, ?, ?)",
		classID, name, relation, ordinal)
	if err != nil {
		return fmt.Errorf("supertype %q: %w", name, err)
	}
	return nil
}

func insertFieldTx(tx *sql.Tx, classID int64, f *model.Field, ordinal int) error {
	var p model.PropertyDeclaration
	if f.Property != nil {
		p = *f.Property
	}
	res, err := tx.Exec(
		`INSERT INTO fields (class_id, name, type_expr, modifiers, ordinal, is_property,
			read_exposed, read_visibility, write_exposed, write_visibility, mutable)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		classID, f.Name, f.Type, modifier.Encode(f.Modifiers), ordinal, f.Property != nil,
		p.Read.Exposed, int(p.Read.Visibility), p.Write.Exposed, int(p.Write.Visibility), p.Mutable,
	)
	if err != nil {
		return err
	}
	fieldID, err := res.LastInsertId()
	if err != nil {
		return err
	}
	return insertAnnotationsTx(tx, &fieldID, nil, f.Annotations)
}

func insertMethodTx(tx *sql.Tx, classID int64, m *model.Method, ordinal int) error {
	res, err := tx.Exec(
		"INSERT INTO methods (class_id, name, return_type, modifiers, ordinal) VALUES (?, ?, ?, ?, ?)",
		classID, m.Name, m.ReturnType, modifier.Encode(m.Modifiers), ordinal,
	)
	if err != nil {
		return err
	}
	methodID, err := res.LastInsertId()
	if err != nil {
		return err
	}
	for i, p := range m.Params {
		if _, err := tx.Exec("INSERT INTO method_params (method_id, name, type_expr, ordinal) VALUES (?, ?, ?, ?)",
			methodID, p.Name, p.Type, i); err != nil {
			return fmt.Errorf("param %d: %w", i, err)
		}
	}
	if err := insertAnnotationsTx(tx, nil, &methodID, m.Annotations); err != nil {
		return err
	}
	if m.Tag == nil {
		return nil
	}

	res, err = tx.Exec("INSERT INTO property_tags (method_id, name, flags) VALUES (?, ?, ?)",
		methodID, nullString(m.Tag.Name), nullInt64(m.Tag.Flags))
	if err != nil {
		return fmt.Errorf("property tag: %w", err)
	}
	tagID, err := res.LastInsertId()
	if err != nil {
		return err
	}
	for i, a := range m.Tag.Annotations {
		if _, err := tx.Exec(
			"INSERT INTO property_tag_annotations (tag_id, qualified_name, text, ordinal) VALUES (?, ?, ?, ?)",
			tagID, a.QualifiedName, a.Text, i); err != nil {
			return fmt.Errorf("tag annotation %q: %w", a.QualifiedName, err)
		}
	}
	return nil
}

func insertAnnotationsTx(tx *sql.Tx, fieldID, methodID *int64, anns []model.Annotation) error {
	for i, a := range anns {
		if _, err := tx.Exec("INSERT INTO annotations (field_id, method_id, name, text, ordinal) VALUES (?, ?, ?, ?, ?)",
			nullInt64(fieldID), nullInt64(methodID), a.Name, a.Text, i); err != nil {
			return fmt.Errorf("annotation %q: %w", a.Name, err)
		}
	}
	return nil
}
