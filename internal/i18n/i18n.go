// Package i18n holds the fixed language table of the Sakura Core client.
// Only the strings the backend itself consumes are carried here; the visual
// string tables live with the web client.
package i18n

import "fmt"

// Code identifies a supported UI language.
type Code string

const (
	CodePTBR Code = "pt-BR"
	CodeEN   Code = "en"
	CodeES   Code = "es"
	CodeJA   Code = "ja"
)

// Language pairs a code with the human-readable label sent to the model in
// the language-enforcement directive.
type Language struct {
	Code  Code
	Label string
}

// Languages lists every supported language, in client display order.
var Languages = []Language{
	{Code: CodePTBR, Label: "Português"},
	{Code: CodeEN, Label: "English"},
	{Code: CodeES, Label: "Español"},
	{Code: CodeJA, Label: "日本語"},
}

// Prompts are the instruction templates for the code actions.
type Prompts struct {
	Improve string
	Explain string
}

// Bundle is the fixed record shape every language must provide.
type Bundle struct {
	NewChat string
	Prompts Prompts
}

var translations = map[Code]Bundle{
	CodePTBR: {
		NewChat: "Nova Orquestração",
		Prompts: Prompts{
			Improve: "AJA COMO UM ENGENHEIRO SENIOR NÍVEL MASTER. Refatore e melhore este código INTEIRAMENTE EM PORTUGUÊS (incluindo comentários). Foque em: Clean Code, SOLID, performance e segurança. RETORNE APENAS O BLOCO DE CÓDIGO.",
			Explain: "AJA COMO UM MENTOR NÍVEL MASTER TÉCNICO. Explique este código passo a passo detalhadamente em PORTUGUÊS. Divida por: 1. Propósito, 2. Conceitos Técnicos, 3. Boas Práticas e 4. Sugestões de Evolução.",
		},
	},
	CodeEN: {
		NewChat: "New Orchestration",
		Prompts: Prompts{
			Improve: "ACT AS A MASTER LEVEL SENIOR ENGINEER. Refactor and improve this code ENTIRELY IN ENGLISH (including comments). Focus on: Clean Code, SOLID, performance, and security. RETURN ONLY THE CODE BLOCK.",
			Explain: "ACT AS A MASTER LEVEL TECHNICAL MENTOR. Explain this code step-by-step in detail IN ENGLISH. Structure: 1. Code Purpose, 2. Technical Concepts, 3. Best Practices, 4. Evolution Suggestions.",
		},
	},
	CodeES: {
		NewChat: "Nueva Orquestación",
		Prompts: Prompts{
			Improve: "ACTÚA COMO UN INGENIERO SENIOR DE NIVEL MAESTRO. Refactoriza y mejora este código COMPLETAMENTE EN ESPAÑOL (incluyendo comentarios). Enfoque: Clean Code, SOLID, rendimiento y seguridad. DEVUELVE SOLO EL BLOQUE DE CÓDIGO.",
			Explain: "ACTÚA COMO UN MENTOR TÉCNICO DE NIVEL MAESTRO. Explica este código paso a paso detalladamente EN ESPAÑOL. Estructura: 1. Propósito, 2. Conceptos Técnicos, 3. Buenas Prácticas, 4. Sugerencias de Evolución.",
		},
	},
	CodeJA: {
		NewChat: "新規オーケストレーション",
		Prompts: Prompts{
			Improve: "マスターレベルのシニアエンジニアとして行動してください。このコードを完全に日本語で（コメントを含めて）リファクタリングし、改善してください。クリーンコード、SOLID、パフォーマンス、セキュリティに焦点を当ててください。コードブロックのみを返してください。",
			Explain: "マスターレベルのテクニカルメンターとして行動してください。このコードを日本語でステップバイステップで詳しく説明してください。構成：1. コードの目的、2. 技術的概念、3. ベストプラクティス、4. 進化への提案。",
		},
	},
}

// Resolve returns the bundle for code, falling back to Portuguese for
// unknown codes, matching the client behavior.
func Resolve(code Code) Bundle {
	if b, ok := translations[code]; ok {
		return b
	}
	return translations[CodePTBR]
}

// Label returns the language label for the given code. Unknown codes fall
// back to "Portuguese", matching the client behavior.
func Label(code Code) string {
	for _, l := range Languages {
		if l.Code == code {
			return l.Label
		}
	}
	return "Portuguese"
}

// Supported reports whether code is a known language.
func Supported(code Code) bool {
	_, ok := translations[code]
	return ok
}

// Validate checks that every declared language has a complete bundle. It is
// called once at startup so a missing translation fails loudly instead of
// silently falling back at runtime.
func Validate() error {
	for _, l := range Languages {
		b, ok := translations[l.Code]
		if !ok {
			return fmt.Errorf("i18n: no bundle for language %q", l.Code)
		}
		if b.NewChat == "" || b.Prompts.Improve == "" || b.Prompts.Explain == "" {
			return fmt.Errorf("i18n: incomplete bundle for language %q", l.Code)
		}
	}
	if len(translations) != len(Languages) {
		return fmt.Errorf("i18n: %d bundles for %d declared languages", len(translations), len(Languages))
	}
	return nil
}
