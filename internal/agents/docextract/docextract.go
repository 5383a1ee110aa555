// Package docextract defines the photo-document extraction coordinator.
// A routing agent inspects the uploaded document and hands it to the
// pipeline for that document type; each pipeline extracts the structured
// fields and then renders them for the user.
package docextract

import (
	"github.com/lablia/docflow/pkg/domain"
	"github.com/lablia/docflow/pkg/schema"
)

// Slot published by the extraction steps and consumed by the view step.
const SlotDocumentData = "document_data"

// CNHData holds the fields extracted from a driver's license (CNH).
type CNHData struct {
	TipoDoDocumento  string `json:"tipo_do_documento"`
	NomeCompleto     string `json:"nome_completo"`
	CPF              string `json:"cpf"`
	DataDeNascimento string `json:"data_de_nascimento"`
}

// RGData holds the fields extracted from an identity card (RG), which
// additionally carries the parents' names.
type RGData struct {
	TipoDoDocumento  string   `json:"tipo_do_documento"`
	NomeCompleto     string   `json:"nome_completo"`
	CPF              string   `json:"cpf"`
	DataDeNascimento string   `json:"data_de_nascimento"`
	Filiacao         []string `json:"filiacao"`
}

// CNHSchema describes the structured output of the CNH extraction step.
func CNHSchema() *schema.Definition {
	return schema.New("CNHdata",
		schema.String("tipo_do_documento", "Tipo do documento (CNH, RG, ...)"),
		schema.String("nome_completo", "Nome Completo presente no documento"),
		schema.String("cpf", "CPF da pessoa física presente no documento"),
		schema.String("data_de_nascimento", "Data de nascimento da pessoa física presente no documento"),
	)
}

// RGSchema describes the structured output of the RG extraction step.
func RGSchema() *schema.Definition {
	return schema.New("RGdata",
		schema.String("tipo_do_documento", "Tipo do documento (CNH, RG, ...)"),
		schema.String("nome_completo", "Nome Completo presente no documento"),
		schema.String("cpf", "CPF da pessoa física presente no documento"),
		schema.String("data_de_nascimento", "Data de nascimento da pessoa física presente no documento"),
		schema.ListOf("filiacao", "Filiação da pessoa física presente no documento", schema.TypeString),
	)
}

const cnhInstruction = `Você é responsável por extrair os dados de uma Carteira Nacional de Habilitação

Dadas as imagens do documento, extraia:
- tipo_do_documento: Tipo do documento recebido (Carteira Nacional de habilitação - CNH, Registro Geral - RG, ...)
- nome_completo: Nome completo da pessoa física
- cpf: CPF da pessoa física presente no documento
- data_de_nascimento: Data de nascimento da pessoa física presente no documento

Responda seguindo o formato JSON especificado, usando como base apenas as imagens dadas`

const rgInstruction = `Você é responsável por extrair os dados de um Registro Geral (RG)

Dadas as imagens do documento, extraia:
- tipo_do_documento: Tipo do documento recebido (Carteira Nacional de habilitação - CNH, Registro Geral - RG, ...)
- nome_completo: Nome completo da pessoa física
- cpf: CPF da pessoa física presente no documento
- data_de_nascimento: Data de nascimento da pessoa física presente no documento
- filiacao: Nomes que compõem a filiação da pessoa física

Responda seguindo o formato JSON especificado, usando como base apenas as imagens dadas`

const userViewInstruction = `Você é responsável por gerar uma descrição sobre os dados encontrados do documento.

[CONTEXTO]
DADOS DO DOCUMENTO:
{document_data}

[TAREFA]
Informe os dados do documento em formato de tópicos, incluindo os dados pessoais e o tipo do documento.

Responda usando APENAS os dados fornecidos`

const coordinatorInstruction = `Você é especialista em coordenar Agentes responsáveis por extrair dados de um documento com foto.

Dada a imagem do documento, escolha o agente que irá extrair os dados, conforme a seguinte descrição:
- cnh_pipeline: Extrai os dados de uma Carteira Nacional de Habilitação (CNH)
- rg_pipeline: Extrai os dados de um Registro Geral (RG)
`

// Each pipeline owns its view step under a distinct name because agent
// names must be unique across the coordinator tree.
func userViewAgent(name string) *domain.Agent {
	return &domain.Agent{
		Kind:        domain.KindStep,
		Name:        name,
		Description: "Descreve os dados encontrados do documento em formato legível ao usuário",
		Instruction: userViewInstruction,
	}
}

// CNHPipeline extracts CNH fields and then renders them for the user.
func CNHPipeline() *domain.Agent {
	extract := &domain.Agent{
		Kind:                     domain.KindStep,
		Name:                     "carteira_nacional_de_habilitacao_cnh",
		Description:              "Extrai os dados de uma CNH",
		Instruction:              cnhInstruction,
		OutputSchema:             CNHSchema(),
		OutputKey:                SlotDocumentData,
		DisallowTransferToParent: true,
		DisallowTransferToPeers:  true,
	}
	return &domain.Agent{
		Kind:      domain.KindPipeline,
		Name:      "cnh_pipeline",
		SubAgents: []*domain.Agent{extract, userViewAgent("user_view_agent")},
	}
}

// RGPipeline extracts RG fields and then renders them for the user.
func RGPipeline() *domain.Agent {
	extract := &domain.Agent{
		Kind:                     domain.KindStep,
		Name:                     "registro_geral_rg",
		Description:              "Extrai os dados de um RG",
		Instruction:              rgInstruction,
		OutputSchema:             RGSchema(),
		OutputKey:                SlotDocumentData,
		DisallowTransferToParent: true,
		DisallowTransferToPeers:  true,
	}
	return &domain.Agent{
		Kind:      domain.KindPipeline,
		Name:      "rg_pipeline",
		SubAgents: []*domain.Agent{extract, userViewAgent("rg_user_view_agent")},
	}
}

// Coordinator routes an uploaded photo document to the extraction
// pipeline for its type.
func Coordinator() *domain.Agent {
	return &domain.Agent{
		Kind:        domain.KindCoordinator,
		Name:        "extracao_dados_documentos",
		Description: "Coordena agentes extratores de dados de documentos",
		Instruction: coordinatorInstruction,
		SubAgents: []*domain.Agent{
			CNHPipeline(),
			RGPipeline(),
		},
	}
}
