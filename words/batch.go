package words

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidBatch = errors.New("invalid generated batch")

const promptTemplate = `あなたはワードウルフ用の単語生成AIです。
以下の条件を厳守してください。

・テーマに沿った名詞の単語ペアを%d組生成する
・citizenWord と wolfWord を持つ
・同一ジャンルだが明確に異なる単語
・同じ単語ペアを生成しない
・日本語のみ
・出力はJSONのみ

出力形式：
{
  "words": [
    { "citizenWord": "string", "wolfWord": "string" }
  ]
}

テーマ：%s
`

// Prompt builds the generation prompt for theme.
func Prompt(theme string) string {
	return fmt.Sprintf(promptTemplate, BatchSize, theme)
}

type batchPayload struct {
	Words []Pair `json:"words"`
}

// ParseBatch decodes generator output into exactly BatchSize pairs.
//
// Markdown code fences around the JSON are tolerated. The batch is rejected
// as a whole if any pair is empty, repeats its own word, uses a reserved
// fallback word or duplicates another pair.
func ParseBatch(text string) ([]Pair, error) {
	text = stripFences(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty output", ErrInvalidBatch)
	}

	var payload batchPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBatch, err)
	}

	if len(payload.Words) != BatchSize {
		return nil, fmt.Errorf("%w: got %d pairs, want %d", ErrInvalidBatch, len(payload.Words), BatchSize)
	}

	seen := make(map[Pair]struct{}, len(payload.Words))
	batch := make([]Pair, 0, len(payload.Words))
	for i, p := range payload.Words {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%w: pair %d: %v", ErrInvalidBatch, i, err)
		}
		p = p.trimmed()
		if IsReserved(p.CitizenWord) || IsReserved(p.WolfWord) {
			return nil, fmt.Errorf("%w: pair %d uses a reserved word", ErrInvalidBatch, i)
		}
		if _, dup := seen[p]; dup {
			return nil, fmt.Errorf("%w: pair %d is repeated", ErrInvalidBatch, i)
		}
		seen[p] = struct{}{}
		batch = append(batch, p)
	}

	return batch, nil
}

func stripFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}
