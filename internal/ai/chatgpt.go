package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/example/prepbot/pkg/models"
)

// ChatGPT represents a client for the OpenAI ChatGPT API
type ChatGPT struct {
	apiKey      string
	apiURL      string
	model       string
	temperature float64
}

// New creates a new ChatGPT client
func New() (*ChatGPT, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-3.5-turbo"
	}

	return &ChatGPT{
		apiKey:      apiKey,
		apiURL:      "https://api.openai.com/v1/chat/completions",
		model:       model,
		temperature: 0.7,
	}, nil
}

// Message represents a message in the ChatGPT conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a request to the ChatGPT API
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

// ChatResponse represents a response from the ChatGPT API
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// complete sends one chat completion request and returns the first choice
func (c *ChatGPT) complete(messages []Message, maxTokens int, temperature float64) (string, error) {
	request := ChatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	requestData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequest("POST", c.apiURL, bytes.NewBuffer(requestData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	var response ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response: %v", err)
	}

	if response.Error != nil {
		return "", fmt.Errorf("API error: %s", response.Error.Message)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}

	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

// generatedQuestion mirrors the JSON shape the model is asked to produce
type generatedQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// GenerateQuestions asks the model for candidate exam questions in the given
// category and difficulty. Every returned question passed validation; the
// caller still decides whether to add them to the bank.
func (c *ChatGPT) GenerateQuestions(category models.Category, difficulty models.Difficulty, count int) ([]models.QuizQuestion, error) {
	if count < 1 {
		count = 1
	}
	if count > 10 {
		count = 10
	}

	prompt := fmt.Sprintf(
		"Generate %d multiple-choice questions for the SSC-CGL exam, category %q, difficulty %q. "+
			"Respond with ONLY a JSON array, no prose. Each element must have the fields "+
			`"question" (string), "options" (array of exactly 4 strings), `+
			`"correct_answer" (integer 0-3, index into options) and "explanation" (string).`,
		count, category, difficulty,
	)

	messages := []Message{
		{Role: "system", Content: "You are an exam question writer for Indian government recruitment tests. You produce factually accurate questions and always answer in strict JSON."},
		{Role: "user", Content: prompt},
	}

	content, err := c.complete(messages, 300*count, c.temperature)
	if err != nil {
		return nil, err
	}

	// Models sometimes wrap JSON in a markdown code fence
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var raw []generatedQuestion
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse generated questions: %v", err)
	}

	questions := make([]models.QuizQuestion, 0, len(raw))
	for _, g := range raw {
		q := models.QuizQuestion{
			ID:            "ai_" + uuid.New().String()[:8],
			Category:      category,
			Difficulty:    difficulty,
			Question:      g.Question,
			Options:       g.Options,
			CorrectAnswer: g.CorrectAnswer,
			Explanation:   g.Explanation,
			Source:        "ai_generated",
		}
		if err := q.Validate(); err != nil {
			fmt.Printf("Discarding generated question: %v\n", err)
			continue
		}
		questions = append(questions, q)
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("model returned no usable questions")
	}

	return questions, nil
}

// ExplainAnswer produces a longer explanation for a question, used when the
// stored explanation is too terse. Falls back to the stored text on error.
func (c *ChatGPT) ExplainAnswer(q *models.QuizQuestion) string {
	prompt := fmt.Sprintf(
		"Explain in 2-3 sentences why %q is the correct answer to the question %q. Keep it exam-focused.",
		q.Options[q.CorrectAnswer], q.Question,
	)

	messages := []Message{
		{Role: "system", Content: "You are a tutor preparing students for the SSC-CGL exam. Keep explanations short and concrete."},
		{Role: "user", Content: prompt},
	}

	explanation, err := c.complete(messages, 150, 0.3)
	if err != nil {
		fmt.Printf("Error generating explanation for %s: %v\n", q.ID, err)
		return q.Explanation
	}

	return explanation
}
