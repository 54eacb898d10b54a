package access_test

import (
	"strings"
	"testing"

	"pgregory.net/rapid"

	"pricingboard/internal/access"
	"pricingboard/internal/board"
)

func TestTransitionSourceTable(t *testing.T) {
	table := access.Default()
	want := map[access.Role][]board.Stage{
		access.RoleAdmin:          {board.StageRaw, board.StageFiltering, board.StagePricing, board.StageDone, board.StageArchive},
		access.RoleClient:         {},
		access.RoleDataManager:    {board.StageRaw, board.StageFiltering},
		access.RoleDataQA:         {board.StageRaw, board.StageFiltering},
		access.RoleDataScientist:  {board.StageFiltering, board.StagePricing},
		access.RolePromptEngineer: {board.StageFiltering, board.StagePricing},
	}
	for role, stages := range want {
		got := table.SourceStages(role)
		if len(got) != len(stages) {
			t.Fatalf("%s: SourceStages = %v, want %v", role, got, stages)
		}
		for i := range stages {
			if got[i] != stages[i] {
				t.Fatalf("%s: SourceStages = %v, want %v", role, got, stages)
			}
		}
	}
	if got := table.SourceStages(access.RoleNone); len(got) != 0 {
		t.Fatalf("unassigned role should have no sources, got %v", got)
	}
}

func TestFolderVisibilityTable(t *testing.T) {
	table := access.Default()
	cases := []struct {
		role   access.Role
		folder board.Stage
		want   bool
	}{
		{access.RoleClient, board.StageRaw, true},
		{access.RoleClient, board.StageDone, true},
		{access.RoleClient, board.StageFiltering, false},
		{access.RoleDataManager, board.StageFiltering, true},
		{access.RoleDataManager, board.StagePricing, false},
		{access.RoleDataScientist, board.StagePricing, true},
		{access.RoleDataScientist, board.StageRaw, false},
		{access.RolePromptEngineer, board.StageDone, true},
		{access.RoleAdmin, board.StageArchive, true},
		{access.RoleNone, board.StageRaw, false},
	}
	for _, tc := range cases {
		if got := table.CanViewFolder(tc.role, tc.folder); got != tc.want {
			t.Fatalf("CanViewFolder(%s, %s) = %v, want %v", tc.role, tc.folder, got, tc.want)
		}
	}
}

func TestCreateAndRemoveRights(t *testing.T) {
	table := access.Default()
	for _, role := range access.AllRoles() {
		wantCreate := role == access.RoleAdmin || role == access.RoleClient
		if table.CanCreate(role) != wantCreate {
			t.Fatalf("CanCreate(%s) = %v", role, !wantCreate)
		}
	}
	if !table.CanRemove(access.RoleClient, board.StageDone) || table.CanRemove(access.RoleClient, board.StagePricing) {
		t.Fatal("client removal must be limited to raw and done")
	}
	if !table.CanRemove(access.RoleAdmin, board.StageArchive) {
		t.Fatal("admin may remove from any stage")
	}
	if table.CanRemove(access.RoleDataQA, board.StageRaw) || table.CanCreate(access.RoleNone) {
		t.Fatal("non-client roles must not create or remove")
	}
}

func TestArchiveTargetIsAdminOnly(t *testing.T) {
	table := access.Default()
	if table.CanTransition(access.RoleDataScientist, board.StagePricing, board.StageArchive) {
		t.Fatal("data scientist must not archive")
	}
	if !table.CanTransition(access.RoleDataScientist, board.StagePricing, board.StageDone) {
		t.Fatal("data scientist may move pricing to done")
	}
	if !table.CanTransition(access.RoleAdmin, board.StageArchive, board.StageDone) {
		t.Fatal("admin may unarchive")
	}
}

func TestParseRejectsIncompleteTables(t *testing.T) {
	cases := map[string]string{
		"missing role": `
transitions: {admin: [raw]}
folders: {admin: [raw], client: [], dataManager: [], dataQA: [], dataScientist: [], promptEngineer: []}
remove: {admin: [raw], client: [], dataManager: [], dataQA: [], dataScientist: [], promptEngineer: []}
`,
		"unknown stage": `
transitions: {admin: [review], client: [], dataManager: [], dataQA: [], dataScientist: [], promptEngineer: []}
folders: {admin: [raw], client: [], dataManager: [], dataQA: [], dataScientist: [], promptEngineer: []}
remove: {admin: [raw], client: [], dataManager: [], dataQA: [], dataScientist: [], promptEngineer: []}
`,
		"unknown role": `
transitions: {admin: [], client: [], dataManager: [], dataQA: [], dataScientist: [], promptEngineer: [], intern: []}
folders: {admin: [raw], client: [], dataManager: [], dataQA: [], dataScientist: [], promptEngineer: []}
remove: {admin: [raw], client: [], dataManager: [], dataQA: [], dataScientist: [], promptEngineer: []}
`,
	}
	for name, doc := range cases {
		if _, err := access.Parse([]byte(doc)); err == nil {
			t.Fatalf("%s: expected parse error", name)
		}
	}
}

func TestRoleLabelsAndParsing(t *testing.T) {
	labels := map[access.Role]string{
		access.RoleAdmin:          "Admin",
		access.RoleDataManager:    "Data Manager",
		access.RoleDataQA:         "Data QA",
		access.RolePromptEngineer: "Prompt Engineer",
		access.RoleNone:           "Unassigned",
	}
	for role, want := range labels {
		if got := role.Label(); got != want {
			t.Fatalf("Label(%q) = %q, want %q", role, got, want)
		}
	}
	if role, ok := access.ParseRole("DATAQA"); !ok || role != access.RoleDataQA {
		t.Fatalf("ParseRole should ignore case, got %q %v", role, ok)
	}
	if _, ok := access.ParseRole(""); ok {
		t.Fatal("empty role must not parse")
	}
}

var (
	roleGen  = rapid.SampledFrom(append(access.AllRoles(), access.RoleNone))
	stageGen = rapid.SampledFrom(board.AllStages())
)

func TestPropertyTransitionRequiresSourceMembership(t *testing.T) {
	table := access.Default()
	rapid.Check(t, func(rt *rapid.T) {
		role := roleGen.Draw(rt, "role")
		from := stageGen.Draw(rt, "from")
		to := stageGen.Draw(rt, "to")

		allowed := table.CanTransition(role, from, to)
		if allowed && !table.CanMoveFrom(role, from) {
			rt.Fatalf("%s moved out of %s without source rights", role, from)
		}
		if allowed && from == to {
			rt.Fatalf("same-stage drop counted as a transition")
		}
		if role == access.RoleClient && allowed {
			rt.Fatalf("client transition permitted %s -> %s", from, to)
		}
		if role == access.RoleNone && allowed {
			rt.Fatalf("unassigned role transition permitted %s -> %s", from, to)
		}
		if to == board.StageArchive && allowed && role != access.RoleAdmin {
			rt.Fatalf("%s archived a task", role)
		}
	})
}

func TestPropertyAdminMovesAnywhere(t *testing.T) {
	table := access.Default()
	rapid.Check(t, func(rt *rapid.T) {
		from := stageGen.Draw(rt, "from")
		to := stageGen.Draw(rt, "to")
		if from == to {
			return
		}
		if !table.CanTransition(access.RoleAdmin, from, to) {
			rt.Fatalf("admin denied %s -> %s", from, to)
		}
	})
}

func TestPropertyVisibleFoldersMatchesCanView(t *testing.T) {
	table := access.Default()
	rapid.Check(t, func(rt *rapid.T) {
		role := roleGen.Draw(rt, "role")
		visible := table.VisibleFolders(role)
		joined := "," + strings.Join(func() []string {
			out := make([]string, len(visible))
			for i, s := range visible {
				out[i] = string(s)
			}
			return out
		}(), ",") + ","
		for _, stage := range board.AllStages() {
			listed := strings.Contains(joined, ","+string(stage)+",")
			if listed != table.CanViewFolder(role, stage) {
				rt.Fatalf("%s: VisibleFolders and CanViewFolder disagree on %s", role, stage)
			}
		}
	})
}
