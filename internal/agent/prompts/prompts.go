package prompts

import (
	_ "embed"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

// Template variable names shared by the chains.
const (
	VarQuery       = "query"
	VarContext     = "context"
	VarGuidelines  = "guidelines"
	VarDishName    = "dish_name"
	VarIngredients = "ingredients"
	VarTopic       = "topic"
)

var (
	//go:embed template/guidelines.txt
	guidelines string
	//go:embed template/intent_system.txt
	intentSystem string
	//go:embed template/dish_system.txt
	dishSystem string
	//go:embed template/decision_system.txt
	decisionSystem string
	//go:embed template/ingredients_system.txt
	ingredientsSystem string
	//go:embed template/substitution_system.txt
	substitutionSystem string
	//go:embed template/substitution_user.txt
	substitutionUser string
	//go:embed template/summary_system.txt
	summarySystem string
	//go:embed template/quiz_system.txt
	quizSystem string
	//go:embed template/extract_system.txt
	extractSystem string
)

const colourCoding = " 각 영양소에 대해서 녹색, 노란색, 빨간색으로 표시하세요."

// Guidelines is the CKD nutrition preamble appended to generation prompts.
func Guidelines() string {
	return strings.TrimSpace(guidelines)
}

// RecommendationGuidelines additionally asks for a traffic-light rating per nutrient.
func RecommendationGuidelines() string {
	return Guidelines() + colourCoding
}

// IntentTemplate expects {query}.
func IntentTemplate() prompt.ChatTemplate {
	return fromText(intentSystem, "{query}")
}

// DishTemplate expects {query}.
func DishTemplate() prompt.ChatTemplate {
	return fromText(dishSystem, "{query}")
}

// DecisionTemplate expects {query}.
func DecisionTemplate() prompt.ChatTemplate {
	return fromText(decisionSystem, "{query}")
}

// IngredientsTemplate expects {context}, {guidelines} and {dish_name}.
func IngredientsTemplate() prompt.ChatTemplate {
	return fromText(ingredientsSystem, "요리명: {dish_name}")
}

// SubstitutionTemplate expects {context}, {guidelines}, {dish_name} and {ingredients}.
func SubstitutionTemplate() prompt.ChatTemplate {
	return fromText(substitutionSystem, substitutionUser)
}

// SummaryTemplate expects {context}, {guidelines} and {topic}.
func SummaryTemplate() prompt.ChatTemplate {
	return fromText(summarySystem, "주제: {topic}\n\n위 주제에 대해 조리법, 주의사항, Q&A를 생성해주세요.")
}

// QuizTemplate expects {context} and {topic}.
func QuizTemplate() prompt.ChatTemplate {
	return fromText(quizSystem, "주제: {topic}\n\n위 주제에 대해 객관식 2문제, 주관식 1문제를 출제해주세요.")
}

// ExtractTemplate expects {query} and {context}.
func ExtractTemplate() prompt.ChatTemplate {
	return fromText(extractSystem, "> 질문: {query}\n> 문서:\n>>>\n{context}\n>>>\n관련 부분:")
}

func fromText(system, user string) prompt.ChatTemplate {
	return prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(strings.TrimSpace(system)),
		schema.UserMessage(strings.TrimSpace(user)),
	)
}
