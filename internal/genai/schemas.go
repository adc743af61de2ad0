// internal/genai/schemas.go
package genai

// Schemas enforced on generation-service payloads before unmarshalling.
// A schema failure is treated exactly like a parse failure.

const classificationSchema = `{
	"type": "object",
	"properties": {
		"intent_id": {"type": "string"},
		"intent_status": {"type": "string", "enum": ["matched", "unclear", "unknown_capability"]},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1},
		"missing_info": {"type": "array", "items": {"type": "string"}},
		"acknowledgement": {"type": "string"},
		"clarifying_question": {"type": "string"},
		"explanation": {"type": "string"},
		"ready_for_visualization": {"type": "boolean"},
		"post_checkout": {"type": "boolean"},
		"use_case": {"type": "string"},
		"desired_outcome": {"type": "string"},
		"constraints": {"type": "array", "items": {"type": "string"}},
		"visual_preferences": {"type": "string"}
	},
	"required": ["intent_status", "confidence", "acknowledgement"]
}`

const semanticVerdictSchema = `{
	"type": "object",
	"properties": {
		"inferred_need": {"type": "string"},
		"best_matching_intent_id": {"type": ["string", "null"]},
		"match_confidence": {"type": "number", "minimum": 0, "maximum": 1},
		"should_use_fallback": {"type": "boolean"}
	},
	"required": ["inferred_need", "should_use_fallback"]
}`

const capabilitySchema = `{
	"type": "object",
	"properties": {
		"capabilities": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"key": {"type": "string"},
					"weight": {"type": "number", "minimum": 0, "maximum": 1}
				},
				"required": ["key", "weight"]
			}
		}
	},
	"required": ["capabilities"]
}`
