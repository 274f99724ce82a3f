package trellis

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jward/trellis/internal/augment"
	"github.com/jward/trellis/internal/model"
	"github.com/jward/trellis/internal/operator"
	"github.com/jward/trellis/internal/project"
	"github.com/jward/trellis/internal/store"
	"github.com/jward/trellis/internal/types"
)

// Snapshot is an immutable view of the index at one epoch: the classes,
// the type system over them, and the properties feature gate.
type Snapshot struct {
	// Epoch is the number of completed indexing runs the snapshot reflects.
	Epoch uint64
	// Ready is false while an indexing run is in progress.
	Ready bool

	Classes *model.Snapshot
	Types   *types.System

	gate      *project.Gate
	augmenter *augment.Augmenter
}

// Env returns the augmentation environment for c.
func (s *Snapshot) Env(c *model.Class) augment.Env {
	env := augment.Env{IndexReady: s.Ready}
	if c != nil {
		env.FeatureEnabled = s.gate.Enabled(c.Module)
	}
	return env
}

// FeatureCheck reports whether the properties feature is on for c, with
// the reason.
func (s *Snapshot) FeatureCheck(c *model.Class) (bool, string) {
	return s.gate.Check(c.Module)
}

// Members returns the augmentation provider bound to this snapshot.
func (s *Snapshot) Members() MemberProvider {
	return s.augmenter
}

// Lookup finds a class by qualified name, falling back to a unique simple
// name. Returns nil when nothing or more than one class matches.
func (s *Snapshot) Lookup(name string) *model.Class {
	if c := s.Classes.Class(name); c != nil {
		return c
	}
	if names := s.Classes.BySimpleName(name); len(names) == 1 {
		return s.Classes.Class(names[0])
	}
	return nil
}

// Snapshot loads the current index. Snapshots are cached per epoch;
// readiness is read fresh on every call.
func (e *Engine) Snapshot() (*Snapshot, error) {
	epoch, err := e.store.Epoch()
	if err != nil {
		return nil, fmt.Errorf("trellis: snapshot: %w", err)
	}
	ready, err := e.store.IndexReady()
	if err != nil {
		return nil, fmt.Errorf("trellis: snapshot: %w", err)
	}

	e.mu.Lock()
	cached := e.snap
	e.mu.Unlock()
	if cached != nil && cached.Epoch == epoch {
		s := *cached
		s.Ready = ready
		return &s, nil
	}

	s, err := e.loadSnapshot(epoch)
	if err != nil {
		return nil, fmt.Errorf("trellis: snapshot: %w", err)
	}

	e.mu.Lock()
	if e.snap == nil || e.snap.Epoch <= epoch {
		e.snap = s
		if e.resolver == nil {
			e.resolver = operator.NewResolver(s.Types, epoch)
		} else {
			e.resolver.Rebind(s.Types, epoch)
		}
	}
	e.mu.Unlock()

	out := *s
	out.Ready = ready
	return &out, nil
}

func (e *Engine) loadSnapshot(epoch uint64) (*Snapshot, error) {
	classes, err := e.store.LoadClasses()
	if err != nil {
		return nil, err
	}
	modules, err := e.store.Modules()
	if err != nil {
		return nil, err
	}
	files, err := e.store.Files()
	if err != nil {
		return nil, err
	}
	assignModules(classes, modules, files)

	gate, err := project.NewGate(e.library, e.constraint, modules)
	if err != nil {
		return nil, err
	}
	cs := model.NewSnapshot(epoch, classes)
	ts := types.New(cs)
	return &Snapshot{
		Epoch:     epoch,
		Classes:   cs,
		Types:     ts,
		gate:      gate,
		augmenter: augment.New(ts),
	}, nil
}

// moduleRoot is the directory a module's stub script lives in. Source
// classes below it belong to the module.
type moduleRoot struct {
	dir  string
	name string
}

// assignModules gives each source class without a module the module whose
// stub script directory is the longest prefix of the class's file.
// Ties go to the module that sorts first by name.
func assignModules(classes []*model.Class, modules []*store.Module, files []*store.File) {
	paths := make(map[int64]string, len(files))
	for _, f := range files {
		paths[f.ID] = f.Path
	}
	var roots []moduleRoot
	for _, m := range modules {
		if m.FileID == nil {
			continue
		}
		if p, ok := paths[*m.FileID]; ok {
			roots = append(roots, moduleRoot{dir: filepath.Dir(p), name: m.Name})
		}
	}
	if len(roots) == 0 {
		return
	}

	for _, c := range classes {
		if c.Module != "" || c.Compiled || c.File == "" {
			continue
		}
		best := -1
		for i, r := range roots {
			if !within(c.File, r.dir) {
				continue
			}
			if best < 0 || len(r.dir) > len(roots[best].dir) {
				best = i
			}
		}
		if best >= 0 {
			c.Module = roots[best].name
		}
	}
}

func within(path, dir string) bool {
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}
