package resume

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// payloadSchema 只约束请求的外层结构；section 内部交给解码时的归一化处理。
const payloadSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["title"],
  "properties": {
    "title": {"type": "string", "maxLength": 255},
    "sections": {
      "type": "array",
      "maxItems": 64,
      "items": {"type": "object"}
    }
  }
}`

var loadPayloadSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(payloadSchema))
})

// ValidatePayload 用 JSON Schema 校验创建/更新请求体。
func ValidatePayload(raw []byte) error {
	schema, err := loadPayloadSchema()
	if err != nil {
		return fmt.Errorf("load payload schema: %w", err)
	}
	res, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("validate payload: %w", err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
}
