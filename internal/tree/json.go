package tree

import (
	"strconv"
	"strings"
	"time"

	"github.com/ohler55/ojg/oj"
)

// DateLayout is the fixed rendering of Date scalars (always UTC).
const DateLayout = "2006-01-02T15:04:05Z"

// Text returns the natural string form of the scalar.
func (s *Scalar) Text() string {
	switch v := s.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.UTC().Format(DateLayout)
	}
	return oj.JSON(s.Value)
}

// JSON renders n as compact JSON text with object members in tree order.
func JSON(n Node) string {
	var sb strings.Builder
	writeJSON(&sb, n)
	return sb.String()
}

func writeJSON(sb *strings.Builder, n Node) {
	switch v := n.(type) {
	case *Scalar:
		switch v.Value.(type) {
		case int64, float64, bool:
			sb.WriteString(v.Text())
		case nil:
			sb.WriteString("null")
		default:
			sb.WriteString(oj.JSON(v.Text()))
		}
	case *List:
		sb.WriteByte('[')
		for i, item := range v.Items {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeJSON(sb, item)
		}
		sb.WriteByte(']')
	case *Object:
		sb.WriteByte('{')
		first := true
		for _, m := range v.Members {
			if m.Intrinsic {
				continue
			}
			if !first {
				sb.WriteByte(',')
			}
			first = false
			sb.WriteString(oj.JSON(m.Name))
			sb.WriteByte(':')
			writeJSON(sb, m.Node)
		}
		sb.WriteByte('}')
	default:
		sb.WriteString("null")
	}
}
