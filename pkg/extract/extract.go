package extract

import (
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"SalmaVoice/internal/entity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Commands pulls every embedded command object out of a model turn.
// Fenced code blocks are authoritative; only when the text carries no
// fenced JSON do we fall back to scanning the raw text for balanced
// objects. Objects without a "page" key are not commands and are skipped.
func Commands(text string) []entity.Command {
	if !strings.Contains(text, "{") {
		return nil
	}

	blocks := fencedBlocks(text)
	if len(blocks) == 0 {
		blocks = scanObjects(text)
	}
	if len(blocks) == 0 {
		if raw := firstToLast(text); raw != "" {
			blocks = []string{raw}
		}
	}

	var cmds []entity.Command
	for _, b := range blocks {
		if cmd, ok := decode(b); ok {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

// fencedBlocks collects the contents of ```json and bare ``` fences and
// splits each fence into individual balanced objects.
func fencedBlocks(text string) []string {
	var out []string
	rest := text
	for {
		start := strings.Index(rest, "```")
		if start < 0 {
			break
		}
		rest = rest[start+3:]
		// Optional language tag on the fence line.
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 && nl < 16 &&
			!strings.Contains(rest[:nl], "{") {
			rest = rest[nl+1:]
		}
		end := strings.Index(rest, "```")
		if end < 0 {
			out = append(out, splitBalanced(rest)...)
			break
		}
		out = append(out, splitBalanced(rest[:end])...)
		rest = rest[end+3:]
	}
	return out
}

// splitBalanced walks a fence body and cuts it into top-level balanced
// {...} objects by brace depth. Braces inside JSON strings are ignored.
func splitBalanced(body string) []string {
	var out []string
	depth := 0
	begin := -1
	inString := false
	escaped := false
	for i := 0; i < len(body); i++ {
		c := body[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				begin = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && begin >= 0 {
					out = append(out, body[begin:i+1])
					begin = -1
				}
			}
		}
	}
	return out
}

// scanObjects finds balanced objects directly in unfenced text.
func scanObjects(text string) []string {
	return splitBalanced(text)
}

// firstToLast is the permissive last resort: everything between the first
// opening and the last closing brace.
func firstToLast(text string) string {
	first := strings.IndexByte(text, '{')
	last := strings.LastIndexByte(text, '}')
	if first < 0 || last <= first {
		return ""
	}
	return text[first : last+1]
}

func decode(block string) (entity.Command, bool) {
	var raw map[string]interface{}
	if err := json.UnmarshalFromString(block, &raw); err != nil {
		return entity.Command{}, false
	}

	page, ok := raw["page"].(string)
	if !ok || page == "" {
		return entity.Command{}, false
	}

	cmd := entity.Command{
		Page:     page,
		Amount:   stringField(raw, "amount"),
		Phone:    stringField(raw, "phone"),
		Alias:    stringField(raw, "alias"),
		Ready:    boolField(raw, "ready"),
		Checkout: boolField(raw, "checkout"),
		Raw:      raw,
	}

	if orders := listField(raw, "orders"); orders != nil {
		cmd.Orders = orders
	} else if products := listField(raw, "products"); products != nil {
		cmd.Orders = products
	}

	return cmd, true
}

// stringField reads a field that models sometimes emit as a number.
func stringField(raw map[string]interface{}, key string) string {
	switch v := raw[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func boolField(raw map[string]interface{}, key string) bool {
	v, _ := raw[key].(bool)
	return v
}

func listField(raw map[string]interface{}, key string) []map[string]interface{} {
	list, ok := raw[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(list))
	for _, e := range list {
		if m, ok := e.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

// StringValue reads a payload field that may arrive as string or number.
func StringValue(m map[string]interface{}, key string) string {
	return stringField(m, key)
}

// IntValue reads a numeric payload field, tolerating string digits.
func IntValue(m map[string]interface{}, key string) (int, bool) {
	switch v := m[key].(type) {
	case float64:
		return int(v), true
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n, true
		}
	}
	return 0, false
}

// ProductAttributes maps a decoded product payload onto catalog attributes.
// Missing names fall back to the category so a line item always has text.
func ProductAttributes(m map[string]interface{}) (name, category, weight, cardamom, grind, cupType, size string) {
	get := func(key string) string { return stringField(m, key) }

	name = get("product_name")
	if name == "" {
		name = get("name")
	}
	category = get("category")
	if name == "" {
		name = category
	}
	weight = get("weight")
	cardamom = get("cardamom")
	grind = get("grind")
	cupType = get("cup_type")
	size = get("size")
	return
}
