package llm

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const maxLoggedViolations = 5

var contractSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return CompileSchema("contract.json", ContractJSONSchema())
})

// Inspect cleans raw model output and, when enabled, checks it against the
// contract schema. Mismatches are logged only; downstream coercion decides
// what is usable.
func Inspect(content string, validate bool, logger *slog.Logger, attrs ...any) string {
	if logger == nil {
		logger = slog.Default()
	}
	cleaned := StripFences(content)
	if cleaned != strings.TrimSpace(content) {
		logger.Warn("llm.extract.fences_stripped", attrs...)
	}
	if !validate {
		return cleaned
	}

	schema, err := contractSchema()
	if err != nil {
		logger.Error("llm.schema.compile_failed", append(attrs, "error", err)...)
		return cleaned
	}
	violations, err := Check(schema, []byte(cleaned))
	switch {
	case err != nil:
		logger.Warn("llm.extract.not_json", append(attrs, "error", err)...)
	case len(violations) > 0:
		shown := make([]string, 0, maxLoggedViolations)
		for i, v := range violations {
			if i == maxLoggedViolations {
				break
			}
			shown = append(shown, v.String())
		}
		logger.Warn("llm.extract.schema_mismatch", append(attrs, "violations", len(violations), "first", shown)...)
	}
	return cleaned
}
