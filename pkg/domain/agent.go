package domain

import (
	"fmt"

	"github.com/lablia/docflow/pkg/schema"
)

// Kind discriminates the three interpreters over the agent tree.
type Kind string

const (
	// KindStep is an atomic unit: one instruction, one inference call,
	// at most one slot write.
	KindStep Kind = "step"
	// KindPipeline executes its children fully, in order, no branching.
	KindPipeline Kind = "pipeline"
	// KindCoordinator routes a request to exactly one child per turn.
	KindCoordinator Kind = "coordinator"
)

// Agent is a named node in the orchestration graph. The Kind field selects
// which of the three behaviors applies; the three variants share one tree
// shape rather than an inheritance hierarchy.
type Agent struct {
	Kind        Kind
	Name        string
	Description string

	// Instruction is the step's prompt template ({slot} placeholders are
	// substituted from session state) or, for a coordinator, the routing
	// instruction describing how to choose among children.
	Instruction string

	// OutputSchema constrains a step's structured output. Nil means the
	// step publishes free text.
	OutputSchema *schema.Definition

	// OutputKey is the session slot the step publishes its result under.
	// Empty means the output is returned but not published.
	OutputKey string

	// Delegation permissions, consumed by the coordinator machinery.
	// A step inside a committed pipeline carries both set to true,
	// which pins execution to the selected branch.
	DisallowTransferToParent bool
	DisallowTransferToPeers  bool

	// SubAgents are the ordered children of a pipeline or coordinator.
	SubAgents []*Agent
}

// Validate checks the structural invariants of the tree rooted at a:
// names present and unique, children where the kind requires them,
// no agent as its own descendant, and delegation at most one level deep
// (a coordinator never nests under another coordinator).
func (a *Agent) Validate() error {
	seen := make(map[string]struct{})
	return a.validate(seen, make(map[*Agent]struct{}), false)
}

func (a *Agent) validate(names map[string]struct{}, stack map[*Agent]struct{}, underCoordinator bool) error {
	if a == nil {
		return fmt.Errorf("nil agent in tree")
	}
	if a.Name == "" {
		return fmt.Errorf("agent without a name (kind %s)", a.Kind)
	}
	if _, dup := names[a.Name]; dup {
		return fmt.Errorf("duplicate agent name %q", a.Name)
	}
	names[a.Name] = struct{}{}

	if _, onPath := stack[a]; onPath {
		return fmt.Errorf("agent %q is its own descendant", a.Name)
	}
	stack[a] = struct{}{}
	defer delete(stack, a)

	switch a.Kind {
	case KindStep:
		if len(a.SubAgents) > 0 {
			return fmt.Errorf("step %q must not have children", a.Name)
		}
		if a.Instruction == "" {
			return fmt.Errorf("step %q has no instruction", a.Name)
		}
	case KindPipeline:
		if len(a.SubAgents) == 0 {
			return fmt.Errorf("pipeline %q has no children", a.Name)
		}
		if a.OutputSchema != nil {
			return fmt.Errorf("pipeline %q must not declare an output schema", a.Name)
		}
	case KindCoordinator:
		if len(a.SubAgents) == 0 {
			return fmt.Errorf("coordinator %q has no children", a.Name)
		}
		if a.Instruction == "" {
			return fmt.Errorf("coordinator %q has no routing instruction", a.Name)
		}
		if a.OutputSchema != nil {
			return fmt.Errorf("coordinator %q must not declare an output schema", a.Name)
		}
		if underCoordinator {
			return fmt.Errorf("coordinator %q nested under another coordinator: delegation is one level deep", a.Name)
		}
		underCoordinator = true
	default:
		return fmt.Errorf("agent %q has unknown kind %q", a.Name, a.Kind)
	}

	for _, child := range a.SubAgents {
		if err := child.validate(names, stack, underCoordinator); err != nil {
			return err
		}
	}
	return nil
}

// Find returns the direct child with the given name, or nil.
func (a *Agent) Find(name string) *Agent {
	for _, child := range a.SubAgents {
		if child.Name == name {
			return child
		}
	}
	return nil
}

// Output is the result of executing an agent subtree. Text always carries
// the raw model text; Record is set only when the terminal step declared
// an output schema.
type Output struct {
	Text   string
	Record map[string]any
}
