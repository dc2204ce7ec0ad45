package types

const (
	QuestionTypeMCQ  = "mcq"
	QuestionTypeText = "text"
)

type QuestionOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type QuizQuestion struct {
	ID              string           `json:"id"`
	Type            string           `json:"type"` // mcq|text
	Prompt          string           `json:"prompt"`
	Options         []QuestionOption `json:"options,omitempty"`
	CorrectOptionID string           `json:"correct_option_id,omitempty"`
	Explanation     string           `json:"explanation,omitempty"`
}

type QuizSetPayload struct {
	Questions []QuizQuestion `json:"questions"`
}

type Flashcard struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer,omitempty"`
	Hint     string `json:"hint,omitempty"`
}

type FlashcardSetPayload struct {
	Cards []Flashcard `json:"cards"`
}

type SectionSummary struct {
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
}

type SummaryPayload struct {
	Title             string           `json:"title"`
	MainSummary       string           `json:"main_summary"`
	KeyPoints         []string         `json:"key_points"`
	ImportantConcepts []string         `json:"important_concepts"`
	Sections          []SectionSummary `json:"sections,omitempty"`
}
