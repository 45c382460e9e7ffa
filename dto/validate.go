package dto

import (
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin/binding"
)

// DecodeData unmarshals the JSON carried in a multipart "data" field and runs the same
// validation ShouldBindJSON would.
func DecodeData(data string, out any) error {
	if data == "" {
		return fmt.Errorf("missing data field")
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		return fmt.Errorf("invalid data json: %w", err)
	}
	return binding.Validator.ValidateStruct(out)
}
