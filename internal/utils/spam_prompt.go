package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mikey/phishguard/internal/core"
)

// SpamPromptFormat asks a language model for a spam probability
const SpamPromptFormat = `You are a spam detection system. Analyze the following email and estimate how likely it is to be spam or phishing.
Respond with a JSON object containing:
- is_spam: boolean (true if spam, false if not)
- score: number between 0 and 1 (the probability that the email is spam)
- explanation: string (brief explanation of your assessment)

Email:
From: %s
Sender domain: %s
To: %s
Subject: %s
Body:
%s

Respond only with the JSON object and nothing else.`

// SpamResponse is the structured answer expected from a language model
type SpamResponse struct {
	IsSpam      bool    `json:"is_spam"`
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation"`
}

// BuildSpamPrompt renders the prompt for email. body is expected to be processed already.
func BuildSpamPrompt(email *core.Email, senderDomain, body string) string {
	to := ""
	if len(email.To) > 0 {
		to = email.To[0]
		if len(email.To) > 1 {
			to += fmt.Sprintf(" and %d others", len(email.To)-1)
		}
	}
	return fmt.Sprintf(SpamPromptFormat, email.From, senderDomain, to, email.Subject, body)
}

// ParseSpamResponse decodes a model answer, tolerating text around the JSON object
func ParseSpamResponse(text string) (*SpamResponse, error) {
	var response SpamResponse
	if err := json.Unmarshal([]byte(text), &response); err == nil {
		return validate(&response)
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, errors.New("failed to extract JSON from LLM response")
	}

	if err := json.Unmarshal([]byte(text[start:end+1]), &response); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response as JSON: %w", err)
	}
	return validate(&response)
}

func validate(response *SpamResponse) (*SpamResponse, error) {
	if response.Score < 0 || response.Score > 1 {
		return nil, fmt.Errorf("LLM score %v is outside [0,1]", response.Score)
	}
	return response, nil
}

// ToPrediction converts a model answer to a prediction
func (r *SpamResponse) ToPrediction(modelUsed string) *core.Prediction {
	class := 0
	if r.Score >= 0.5 {
		class = 1
	}
	return &core.Prediction{
		Class:       class,
		Probability: r.Score,
		ModelUsed:   modelUsed,
	}
}
