package trellis

import (
	"github.com/jward/trellis/internal/augment"
	"github.com/jward/trellis/internal/model"
	"github.com/jward/trellis/internal/operator"
	"github.com/jward/trellis/internal/store"
)

// Public type aliases for internal types used in the Engine and
// QueryBuilder API. These are Go type aliases (=), identical to the
// internal types at compile time.

type Store = store.Store
type File = store.File
type Module = store.Module
type Dependency = store.Dependency

type Class = model.Class
type Field = model.Field
type Method = model.Method
type MemberKind = model.MemberKind

type SyntheticField = augment.SyntheticField
type SyntheticMethod = augment.SyntheticMethod
type Member = augment.Member
type Env = augment.Env

type BinaryExpr = operator.BinaryExpr
type Operand = operator.Operand

// Member kinds accepted by QueryBuilder.Augment.
const (
	MemberField  = model.MemberField
	MemberMethod = model.MemberMethod
)
