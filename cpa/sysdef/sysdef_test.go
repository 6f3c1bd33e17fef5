package sysdef

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/cpa-go/cpa"
)

const twoResourceSPPYAML = `
resources:
  - name: R1
    scheduler: spp
    tasks:
      - name: T11
        wcet: 10
        bcet: 5
        priority: 1
        input_model:
          pjd:
            p: 30
            j: 5
      - name: T12
        wcet: 3
        bcet: 1
        priority: 2
        input_model:
          pjd:
            p: 15
            j: 6
  - name: R2
    scheduler: spp
    tasks:
      - name: T21
        wcet: 2
        bcet: 2
        priority: 1
      - name: T22
        wcet: 9
        bcet: 4
        priority: 2
links:
  - from: T11
    to: T21
  - from: T12
    to: T22
constraints:
  load_threshold:
    R1: 0.9
`

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "system.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestLoadAndBuildTwoResourceSPP(t *testing.T) {
	path := writeTemp(t, twoResourceSPPYAML)

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	sys, err := Build(doc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(sys.Resources) != 2 {
		t.Fatalf("len(Resources) = %d, want 2", len(sys.Resources))
	}
	r1 := sys.Resources[0]
	if len(r1.Tasks) != 2 {
		t.Fatalf("len(R1.Tasks) = %d, want 2", len(r1.Tasks))
	}
	t11 := r1.Tasks[0]
	if t11.Name != "T11" || t11.WCET != 10 || t11.BCET != 5 {
		t.Errorf("T11 = %+v, want name=T11 wcet=10 bcet=5", t11)
	}
	if t11.InEventModel == nil {
		t.Fatal("T11.InEventModel = nil, want a PJd model")
	}
	if got := t11.InEventModel.DeltaPlus(3); got != 2*30+5 {
		t.Errorf("T11 input model DeltaPlus(3) = %d, want %d", got, 2*30+5)
	}

	t21 := sys.Resources[1].Tasks[0]
	if t21.Predecessor != cpa.Linkable(t11) {
		t.Errorf("T21.Predecessor = %v, want T11", t21.Predecessor)
	}

	if threshold, ok := sys.Constraints.LoadThreshold[r1]; !ok || threshold != 0.9 {
		t.Errorf("R1 load threshold = (%v,%v), want (0.9,true)", threshold, ok)
	}
}

func TestBuildRejectsUnknownLinkReference(t *testing.T) {
	doc := &Document{
		Resources: []ResourceDef{{
			Name: "R", Scheduler: "spp",
			Tasks: []TaskDef{{Name: "A", WCET: 1, BCET: 1}},
		}},
		Links: []LinkDef{{From: "A", To: "ghost"}},
	}
	if _, err := Build(doc); err == nil {
		t.Fatal("Build: want error for link to unknown node, got nil")
	}
}

func TestDocumentRoundTripsThroughYAML(t *testing.T) {
	var doc Document
	if err := yaml.Unmarshal([]byte(twoResourceSPPYAML), &doc); err != nil {
		t.Fatalf("yaml.Unmarshal: %v", err)
	}
	if len(doc.Resources) != 2 {
		t.Fatalf("len(doc.Resources) = %d, want 2", len(doc.Resources))
	}
}
