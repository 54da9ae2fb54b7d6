package rig

import (
	"fmt"

	"github.com/qmuntal/gltf"
)

// AvatarSource supplies the morph targets a sink can drive.
type AvatarSource interface {
	Name() string
	MorphTargets() ([]string, error)
}

// Procedural is a built-in head exposing every ARKit shape plus mouthOpen.
type Procedural struct{}

func (Procedural) Name() string { return "procedural" }

func (Procedural) MorphTargets() ([]string, error) {
	return ProceduralNames(), nil
}

// Loaded reads morph targets from a glTF or GLB file. Names come from the
// mesh extras "targetNames"; unnamed targets are called target_<i>.
type Loaded struct {
	Path string
	// Mesh selects a mesh by name; empty picks the first mesh with targets.
	Mesh string
}

func (l Loaded) Name() string { return l.Path }

func (l Loaded) MorphTargets() ([]string, error) {
	doc, err := gltf.Open(l.Path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	mesh, err := l.pickMesh(doc)
	if err != nil {
		return nil, err
	}

	count := 0
	for _, prim := range mesh.Primitives {
		if len(prim.Targets) > count {
			count = len(prim.Targets)
		}
	}

	names := make([]string, count)
	for i := range names {
		names[i] = fmt.Sprintf("target_%d", i)
	}

	if extras, ok := mesh.Extras.(map[string]interface{}); ok {
		if targetNames, ok := extras["targetNames"].([]interface{}); ok {
			for i, name := range targetNames {
				if i >= count {
					break
				}
				if s, ok := name.(string); ok && s != "" {
					names[i] = s
				}
			}
		}
	}
	return names, nil
}

func (l Loaded) pickMesh(doc *gltf.Document) (*gltf.Mesh, error) {
	if len(doc.Meshes) == 0 {
		return nil, fmt.Errorf("no meshes in %s", l.Path)
	}
	for _, m := range doc.Meshes {
		if l.Mesh != "" {
			if m.Name == l.Mesh {
				return m, nil
			}
			continue
		}
		for _, prim := range m.Primitives {
			if len(prim.Targets) > 0 {
				return m, nil
			}
		}
	}
	if l.Mesh != "" {
		return nil, fmt.Errorf("mesh %q not found in %s", l.Mesh, l.Path)
	}
	return nil, fmt.Errorf("no morph targets in %s", l.Path)
}
