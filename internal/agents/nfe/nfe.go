// Package nfe defines the electronic invoice (NFe) ICMS pipeline: a
// fixed sequence that extracts the invoice fields, computes the ICMS
// tax per product, and renders a report for the user.
package nfe

import (
	"github.com/lablia/docflow/pkg/domain"
	"github.com/lablia/docflow/pkg/schema"
)

// Slots published along the pipeline.
const (
	SlotInvoiceData = "nota_fiscal_data"
	SlotTaxResult   = "icms_result"
)

// Product is a line item on the invoice.
type Product struct {
	Codigo       string  `json:"codigo"`
	Descricao    string  `json:"descricao"`
	PrecoUnidade float64 `json:"preco_unidade"`
	Quantidade   int     `json:"quantidade"`
	PrecoTotal   string  `json:"preco_total"`
}

// InvoiceData holds the fields extracted from the invoice image.
type InvoiceData struct {
	DestinatarioNome string    `json:"destinatario_nome"`
	ValorTotal       string    `json:"valor_total"`
	ValorICMS        string    `json:"valor_ICMS"`
	Produtos         []Product `json:"produtos"`
}

// ProductTax is the computed ICMS share of one product.
type ProductTax struct {
	Codigo    string  `json:"codigo"`
	ValorICMS float64 `json:"valor_icms"`
}

// TaxResult holds the ICMS computation over the whole invoice.
type TaxResult struct {
	PorcentagemICMS float64      `json:"porcentagem_icms"`
	ImpostoProdutos []ProductTax `json:"imposto_produtos"`
}

func productSchema() *schema.Definition {
	return schema.New("Produto",
		schema.String("codigo", "Código do Produto"),
		schema.String("descricao", "Descrição do Produto"),
		schema.Number("preco_unidade", "Preço da unidade do produto"),
		schema.Integer("quantidade", "Quantidade de unidades do Produto"),
		schema.String("preco_total", "Preço Total"),
	)
}

// InvoiceSchema describes the structured output of the extraction step.
func InvoiceSchema() *schema.Definition {
	return schema.New("NotaFiscalData",
		schema.String("destinatario_nome", "Nome do destinatário/remetente"),
		schema.String("valor_total", "Valor total da nota"),
		schema.String("valor_ICMS", "Valor do ICMS"),
		schema.ListOfRecord("produtos", "Lista de produtos contidos na nota", productSchema()),
	)
}

// TaxSchema describes the structured output of the calculator step.
func TaxSchema() *schema.Definition {
	productTax := schema.New("ImpostoProduto",
		schema.String("codigo", "Código do Produto"),
		schema.Number("valor_icms", "Valor do ICMS do Produto"),
	)
	return schema.New("NFeTax",
		schema.Number("porcentagem_icms", "Porcentagem do ICMS sobre a NFe"),
		schema.ListOfRecord("imposto_produtos", "Lista de Valores sobre os impostos dos produtos", productTax),
	)
}

const extractorInstruction = `Você é especialista na extração de dados de uma Nota Fiscal.

Dada a imagem de uma Nota Fiscal, você deverá extrair:
- destinatario_nome: Nome do destinatário.
- valor_total: Valor total da Nota Fiscal.
- valor_ICMS: Valor total do ICMS da Nota.
- produtos: Lista de produtos contidos na nota

Retorne sua resposta no formato JSON especificado, usando apenas os dados das imagens.`

const calculatorInstruction = `Você é um especialista no cálculo de impostos relacionados a uma Nota Fiscal Eletrônica (NFe).

[CONTEXTO]
Dados da Nota Fiscal:
` + "```json\n{nota_fiscal_data}\n```" + `

[TAREFA]
Calcule o imposto contido nos produtos/serviços da NFe seguindo as seguintes etapas:
1 - Calcule a porcentagem do ICMS sobre o valor total da nota.
2 - Calcule o valor do ICMS sobre cada produto usando a porcentagem do ICMS calculada na etapa 1.

Para cada produto indique:
1 - codigo: Código do Produto
2 - valor_icms: O valor do ICMS

Responda usando o esquema JSON especificado, e utilizando APENAS o contexto dado.`

const resultInstruction = `Você é responsável por exibir o resultado do cálculo do ICMS de uma Nota Fiscal Eletrônica.

[CONTEXTO]
**DADOS DA NOTA FISCAL ELETRÔNICA:**
` + "```json\n{nota_fiscal_data}\n```" + `

**RESULTADO DO CÁLCULO DOS IMPOSTOS**:
` + "```json\n{icms_result}\n```" + `

[TAREFA]
Gere um texto descritivo e informativo da Nota Fiscal Eletrônica, contendo:
- Nome do destinatário
- Valor Total da Nota
- Valor do ICMS
- Porcentagem do ICMS

Para cada produto/serviço, indique:
- Código identificador
- Descrição
- Valor Total do Produto
- Valor Total do ICMS`

// Extractor reads the invoice image into structured data. It also runs
// standalone as its own entrypoint.
func Extractor() *domain.Agent {
	return &domain.Agent{
		Kind:                     domain.KindStep,
		Name:                     "extrator_de_dados_NFe",
		Description:              "Extrai os dados de uma Nota Fiscal Eletronica",
		Instruction:              extractorInstruction,
		OutputSchema:             InvoiceSchema(),
		OutputKey:                SlotInvoiceData,
		DisallowTransferToParent: true,
		DisallowTransferToPeers:  true,
	}
}

func calculator() *domain.Agent {
	return &domain.Agent{
		Kind:                     domain.KindStep,
		Name:                     "calculador_de_imposto_nfe",
		Description:              "Calcula o Imposto (ICMS) atribuido a uma Nota Fiscal Eletrônica",
		Instruction:              calculatorInstruction,
		OutputSchema:             TaxSchema(),
		OutputKey:                SlotTaxResult,
		DisallowTransferToParent: true,
		DisallowTransferToPeers:  true,
	}
}

func resultPresenter() *domain.Agent {
	return &domain.Agent{
		Kind:        domain.KindStep,
		Name:        "exibidor_de_resultado_NFe",
		Description: "Exibe o resultado do cálculo de ICMS de uma NFe",
		Instruction: resultInstruction,
	}
}

// Pipeline is the full ICMS flow: extract, calculate, present.
func Pipeline() *domain.Agent {
	return &domain.Agent{
		Kind:      domain.KindPipeline,
		Name:      "calculador_de_ICMS_NFe",
		SubAgents: []*domain.Agent{Extractor(), calculator(), resultPresenter()},
	}
}
