package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/insightdb/insightdb/internal/llm"
	"github.com/insightdb/insightdb/internal/models"
	"github.com/rs/zerolog/log"
)

// ErrClassificationParse means the model's classification reply did not
// conform to the expected shape. Callers must treat this as "unable to
// safely proceed" — never as data_query.
var ErrClassificationParse = errors.New("intent classification returned an unrecognized shape")

// StructuredCompleter is the schema-constrained completion capability.
type StructuredCompleter interface {
	CompleteWithTool(ctx context.Context, system, user string, tool llm.ToolSpec) (json.RawMessage, error)
}

const classifierSystemPrompt = `As a security-focused assistant, you must first classify the user's intent.
The user wants to interact with a database. Your primary goal is to identify if their request is a safe data query, a simple descriptive question, or a potentially harmful destructive request.
A 'destructive_request' is ANY request that asks to add, delete, modify, or remove data, tables, or database structure. This includes words like 'delete', 'remove', 'drop', 'insert', 'update', 'add', etc.
A 'descriptive_question' asks about the database itself: what tables exist, what columns a table has, how things relate.
A 'data_query' asks for data that can be answered with a read-only query.

Record the intent with the record_intent tool.`

var intentTool = llm.ToolSpec{
	Name:        "record_intent",
	Description: "Record the classification of the user's request.",
	InputSchema: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"intent": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"data_query", "descriptive_question", "destructive_request"},
				"description": "The triage category of the user's request.",
			},
		},
		"required": []string{"intent"},
	},
}

// Classifier triages free-text questions into one of three intent labels.
// The label is advisory: the safety gate re-verifies every generated
// query regardless of what is decided here.
type Classifier struct {
	llm StructuredCompleter
}

func NewClassifier(structured StructuredCompleter) *Classifier {
	return &Classifier{llm: structured}
}

// Classify returns the intent label for a question, or
// ErrClassificationParse when the reply cannot be decoded into one of the
// three labels (fail closed).
func (c *Classifier) Classify(ctx context.Context, question string) (models.Intent, error) {
	raw, err := c.llm.CompleteWithTool(ctx, classifierSystemPrompt, "Question: "+question, intentTool)
	if err != nil {
		return "", fmt.Errorf("classify: %w", err)
	}

	var reply struct {
		Intent string `json:"intent"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return "", fmt.Errorf("%w: %v", ErrClassificationParse, err)
	}

	intent := models.Intent(reply.Intent)
	if !intent.Valid() {
		return "", fmt.Errorf("%w: %q", ErrClassificationParse, reply.Intent)
	}

	log.Debug().Str("intent", string(intent)).Msg("question classified")
	return intent, nil
}
