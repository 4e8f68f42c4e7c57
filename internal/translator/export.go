package translator

import (
	"bytes"
	"encoding/json"
	"fmt"

	"modelfan/internal/models"
)

type exportExample struct {
	Messages []models.Message `json:"messages"`
}

// BinToJSONL renders a bin's conversation as chat-format training examples,
// one JSON object per line. Each assistant turn closes one example containing
// the system prompt and all turns up to and including it.
func BinToJSONL(bin models.Bin) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)

	prefix := make([]models.Message, 0, len(bin.Messages)+1)
	if bin.SystemPrompt != "" {
		prefix = append(prefix, models.Message{Role: "system", Content: bin.SystemPrompt})
	}

	for _, msg := range bin.Messages {
		prefix = append(prefix, msg)
		if msg.Role != "assistant" {
			continue
		}
		example := exportExample{Messages: append([]models.Message(nil), prefix...)}
		if err := encoder.Encode(example); err != nil {
			return nil, fmt.Errorf("encode export example: %w", err)
		}
	}

	return buf.Bytes(), nil
}
