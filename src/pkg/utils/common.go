package utils

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ConvertString renders any value as a string for log metadata.
func ConvertString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case error:
		return val.Error()
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%+v", v)
		}
		return string(b)
	}
}

func ConvertInt(v interface{}) int {
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	case string:
		i, _ := strconv.Atoi(val)
		return i
	default:
		return 0
	}
}

// Round2 rounds a monetary amount to two decimal places. All balance math
// in the ledger goes through this before it is persisted or compared.
func Round2(amount float64) float64 {
	return math.Round(amount*100) / 100
}
