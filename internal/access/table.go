package access

import (
	_ "embed"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"

	"pricingboard/internal/board"
)

//go:embed tables.yaml
var tablesYAML []byte

type rawTables struct {
	Transitions       map[string][]string `yaml:"transitions"`
	RestrictedTargets map[string][]string `yaml:"restricted_targets"`
	Folders           map[string][]string `yaml:"folders"`
	Create            []string            `yaml:"create"`
	Remove            map[string][]string `yaml:"remove"`
}

type stageSet map[board.Stage]struct{}

func (s stageSet) has(stage board.Stage) bool {
	_, ok := s[stage]
	return ok
}

// Table is a validated set of role tables.
type Table struct {
	transitions map[Role]stageSet
	restricted  map[board.Stage]map[Role]struct{}
	folders     map[Role]stageSet
	create      map[Role]struct{}
	remove      map[Role]stageSet
}

var defaultTable = mustParse(tablesYAML)

// Default returns the embedded role tables.
func Default() *Table {
	return defaultTable
}

func mustParse(data []byte) *Table {
	t, err := Parse(data)
	if err != nil {
		panic(fmt.Sprintf("access: embedded tables: %v", err))
	}
	return t
}

// Parse decodes and validates role tables. Every per-role table must list all
// six roles and every stage name must be known.
func Parse(data []byte) (*Table, error) {
	var raw rawTables
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode tables: %w", err)
	}
	t := &Table{
		restricted: make(map[board.Stage]map[Role]struct{}),
		create:     make(map[Role]struct{}),
	}
	var err error
	if t.transitions, err = perRole("transitions", raw.Transitions); err != nil {
		return nil, err
	}
	if t.folders, err = perRole("folders", raw.Folders); err != nil {
		return nil, err
	}
	if t.remove, err = perRole("remove", raw.Remove); err != nil {
		return nil, err
	}
	for stageName, roles := range raw.RestrictedTargets {
		stage, ok := board.ParseStage(stageName)
		if !ok {
			return nil, fmt.Errorf("restricted_targets: unknown stage %q", stageName)
		}
		allowed := make(map[Role]struct{}, len(roles))
		for _, name := range roles {
			role, ok := ParseRole(name)
			if !ok {
				return nil, fmt.Errorf("restricted_targets.%s: unknown role %q", stageName, name)
			}
			allowed[role] = struct{}{}
		}
		t.restricted[stage] = allowed
	}
	for _, name := range raw.Create {
		role, ok := ParseRole(name)
		if !ok {
			return nil, fmt.Errorf("create: unknown role %q", name)
		}
		t.create[role] = struct{}{}
	}
	return t, nil
}

func perRole(section string, entries map[string][]string) (map[Role]stageSet, error) {
	out := make(map[Role]stageSet, len(allRoles))
	for name, stages := range entries {
		role, ok := ParseRole(name)
		if !ok || string(role) != name {
			return nil, fmt.Errorf("%s: unknown role %q", section, name)
		}
		set := make(stageSet, len(stages))
		for _, stageName := range stages {
			stage, ok := board.ParseStage(stageName)
			if !ok {
				return nil, fmt.Errorf("%s.%s: unknown stage %q", section, name, stageName)
			}
			set[stage] = struct{}{}
		}
		out[role] = set
	}
	for _, role := range allRoles {
		if _, ok := out[role]; !ok {
			return nil, fmt.Errorf("%s: missing role %q", section, role)
		}
	}
	return out, nil
}

// CanMoveFrom reports whether role may move a task out of stage.
func (t *Table) CanMoveFrom(role Role, stage board.Stage) bool {
	return t.transitions[role].has(stage)
}

// CanTarget reports whether role may drop a task onto stage.
func (t *Table) CanTarget(role Role, stage board.Stage) bool {
	if !role.Valid() || !stage.Valid() {
		return false
	}
	allowed, restricted := t.restricted[stage]
	if !restricted {
		return true
	}
	_, ok := allowed[role]
	return ok
}

// CanTransition combines the source and destination checks. Same-stage
// drops are reorders and never count as transitions.
func (t *Table) CanTransition(role Role, from, to board.Stage) bool {
	if from == to {
		return false
	}
	return t.CanMoveFrom(role, from) && t.CanTarget(role, to)
}

// SourceStages lists the stages role may move tasks out of, in pipeline order.
func (t *Table) SourceStages(role Role) []board.Stage {
	return t.transitions[role].ordered()
}

// CanViewFolder reports whether role may see attachments tagged with folder.
func (t *Table) CanViewFolder(role Role, folder board.Stage) bool {
	return t.folders[role].has(folder)
}

// VisibleFolders lists the attachment folders role may see, in pipeline order.
func (t *Table) VisibleFolders(role Role) []board.Stage {
	return t.folders[role].ordered()
}

// CanCreate reports whether role may create tasks.
func (t *Table) CanCreate(role Role) bool {
	_, ok := t.create[role]
	return ok
}

// CanRemove reports whether role may remove a task sitting in stage.
func (t *Table) CanRemove(role Role, stage board.Stage) bool {
	return t.remove[role].has(stage)
}

// CanEdit reports whether role may edit a task sitting in stage. Editing
// follows folder visibility of the task's current stage.
func (t *Table) CanEdit(role Role, stage board.Stage) bool {
	return t.CanViewFolder(role, stage)
}

func (s stageSet) ordered() []board.Stage {
	out := make([]board.Stage, 0, len(s))
	for _, stage := range board.AllStages() {
		if s.has(stage) {
			out = append(out, stage)
		}
	}
	return slices.Clip(out)
}
