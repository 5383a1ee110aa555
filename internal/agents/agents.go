// Package agents assembles the application's agent catalog.
package agents

import (
	"github.com/lablia/docflow/internal/agents/docextract"
	"github.com/lablia/docflow/internal/agents/nfe"
	"github.com/lablia/docflow/pkg/domain"
	"github.com/lablia/docflow/pkg/registry"
)

// DefaultAgent is the catalog entry commands fall back to when no agent
// is named. The coordinator covers the broadest set of requests.
const DefaultAgent = "extracao_dados_documentos"

// NewRegistry returns the default catalog: the NFe ICMS pipeline, the
// standalone NFe extractor, and the photo-document coordinator.
func NewRegistry() (*registry.Registry, error) {
	reg := registry.NewRegistry()

	catalog := []*domain.Agent{
		nfe.Pipeline(),
		nfe.Extractor(),
		docextract.Coordinator(),
	}
	for _, agent := range catalog {
		if err := reg.Register(agent); err != nil {
			return nil, err
		}
	}

	return reg, nil
}
