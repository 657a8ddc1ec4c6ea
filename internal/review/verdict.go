package review

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"dealflow-engine/internal/domain"
)

// verdictSchema is the only shape a model answer may take. Missing or null
// lists mean "none"; anything else of the wrong type is rejected.
const verdictSchema = `{
  "type": "object",
  "required": ["keep", "tier"],
  "properties": {
    "keep":      {"type": "boolean"},
    "tier":      {"type": "string", "enum": ["A", "B", "C"]},
    "reasons":   {"type": ["array", "null"], "items": {"type": "string"}},
    "red_flags": {"type": ["array", "null"], "items": {"type": "string"}}
  }
}`

var schema *gojsonschema.Schema

func init() {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(verdictSchema))
	if err != nil {
		panic(fmt.Sprintf("review: bad verdict schema: %v", err))
	}
	schema = s
}

// ParseVerdict validates raw model output and decodes it. It never guesses:
// a verdict either has the required shape or is ErrMalformedVerdict.
func ParseVerdict(raw []byte) (domain.ReviewVerdict, error) {
	res, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return domain.ReviewVerdict{}, fmt.Errorf("%w: %v", domain.ErrMalformedVerdict, err)
	}
	if !res.Valid() {
		msgs := make([]string, len(res.Errors()))
		for i, e := range res.Errors() {
			msgs[i] = e.String()
		}
		return domain.ReviewVerdict{}, fmt.Errorf("%w: %s", domain.ErrMalformedVerdict, strings.Join(msgs, "; "))
	}

	var v domain.ReviewVerdict
	if err := json.Unmarshal(raw, &v); err != nil {
		return domain.ReviewVerdict{}, fmt.Errorf("%w: %v", domain.ErrMalformedVerdict, err)
	}
	if v.Reasons == nil {
		v.Reasons = []string{}
	}
	if v.RedFlags == nil {
		v.RedFlags = []string{}
	}
	return v, nil
}
