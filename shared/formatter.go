package shared

import (
	"fmt"
	"strings"

	"lama/runtime"

	"github.com/funvibe/funbit/pkg/funbit"
)

// FormatValueForDisplay renders a result for the user: top-level strings
// print without quotes, nested ones with quotes, functions by name.
func FormatValueForDisplay(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case runtime.String:
		return string(v)
	case *runtime.Function:
		if !v.IsDefined() {
			return fmt.Sprintf("<undefined function %s>", v.Name())
		}
		return fmt.Sprintf("<function %s>", v.Name())
	case runtime.Value:
		return v.String()
	case *funbit.BitString:
		return formatBitstringAsBytes(v)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", value)
	default:
		return fmt.Sprintf("%v", value)
	}
}

// formatBitstringAsBytes formats a bitstring as <<42,0,0,0>>
func formatBitstringAsBytes(bitString *funbit.BitString) string {
	if bitString == nil || bitString.Length() == 0 {
		return "<<>>"
	}

	data := bitString.ToBytes()
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = fmt.Sprintf("%d", b)
	}
	return "<<" + strings.Join(parts, ",") + ">>"
}
