package domain_test

import (
	"testing"

	"github.com/lablia/docflow/pkg/domain"
	"github.com/lablia/docflow/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func step(name string) *domain.Agent {
	return &domain.Agent{
		Kind:        domain.KindStep,
		Name:        name,
		Instruction: "do " + name,
	}
}

func TestValidate_WellFormedTree(t *testing.T) {
	tree := &domain.Agent{
		Kind:        domain.KindCoordinator,
		Name:        "router",
		Instruction: "choose",
		SubAgents: []*domain.Agent{
			{
				Kind: domain.KindPipeline,
				Name: "doc_pipeline",
				SubAgents: []*domain.Agent{
					step("extract"),
					step("present"),
				},
			},
			step("fallback"),
		},
	}
	assert.NoError(t, tree.Validate())
}

func TestValidate_DuplicateNames(t *testing.T) {
	tree := &domain.Agent{
		Kind: domain.KindPipeline,
		Name: "p",
		SubAgents: []*domain.Agent{
			step("twin"),
			step("twin"),
		},
	}
	err := tree.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestValidate_SelfDescendant(t *testing.T) {
	p := &domain.Agent{Kind: domain.KindPipeline, Name: "loop"}
	p.SubAgents = []*domain.Agent{p}

	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "descendant")
}

func TestValidate_NestedCoordinatorRejected(t *testing.T) {
	inner := &domain.Agent{
		Kind:        domain.KindCoordinator,
		Name:        "inner",
		Instruction: "choose",
		SubAgents:   []*domain.Agent{step("leaf")},
	}
	outer := &domain.Agent{
		Kind:        domain.KindCoordinator,
		Name:        "outer",
		Instruction: "choose",
		SubAgents: []*domain.Agent{
			{Kind: domain.KindPipeline, Name: "wrap", SubAgents: []*domain.Agent{inner}},
		},
	}
	err := outer.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "one level")
}

func TestValidate_PipelineWithSchemaRejected(t *testing.T) {
	tree := &domain.Agent{
		Kind:         domain.KindPipeline,
		Name:         "p",
		OutputSchema: schema.New("x", schema.String("a", "a")),
		SubAgents:    []*domain.Agent{step("s")},
	}
	assert.Error(t, tree.Validate())
}

func TestValidate_EmptyChildren(t *testing.T) {
	assert.Error(t, (&domain.Agent{Kind: domain.KindPipeline, Name: "p"}).Validate())
	assert.Error(t, (&domain.Agent{Kind: domain.KindCoordinator, Name: "c", Instruction: "i"}).Validate())
}

func TestFind(t *testing.T) {
	tree := &domain.Agent{
		Kind:      domain.KindPipeline,
		Name:      "p",
		SubAgents: []*domain.Agent{step("a"), step("b")},
	}
	require.NotNil(t, tree.Find("b"))
	assert.Nil(t, tree.Find("missing"))
}

func TestSessionClone_Isolation(t *testing.T) {
	s := domain.NewSession("s1", "agents", "user_1")
	s.Slots["k"] = "v"
	s.History = append(s.History, domain.Message{Role: domain.RoleUser, Text: "hi"})

	c := s.Clone()
	c.Slots["k"] = "changed"
	c.History = append(c.History, domain.Message{Role: domain.RoleAssistant, Text: "yo"})

	assert.Equal(t, "v", s.Slots["k"])
	assert.Len(t, s.History, 1)
}
