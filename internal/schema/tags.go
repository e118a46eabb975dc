package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mcncl/schemaplay/internal/models"
)

// formatRules maps string formats to validator rules
var formatRules = map[string]string{
	"email":    "email",
	"uri":      "url",
	"url":      "url",
	"uuid":     "uuid",
	"ipv4":     "ipv4",
	"ipv6":     "ipv6",
	"hostname": "hostname",
}

// generateFieldTags creates the tags for a field. It returns the tag values
// by key and the rendered tag as a Go string literal.
func (c *Converter) generateFieldTags(jsonKey string, schema *Schema, typeInfo models.TypeInfo, isRequired bool) (map[string]string, string) {
	tags := make(map[string]string)

	if c.config.ShouldSkipField(jsonKey) {
		tags["json"] = "-"
		return tags, "`json:\"-\"`"
	}

	// JSON tag
	jsonTagValue := jsonKey
	if c.omitempty(typeInfo, isRequired) {
		jsonTagValue += ",omitempty"
	}
	tags["json"] = jsonTagValue

	tagParts := []string{fmt.Sprintf("json:%q", jsonTagValue)}

	if c.config.Validation.Enabled {
		if rules := c.validationRules(jsonKey, schema, isRequired); len(rules) > 0 {
			validateTag := strings.Join(rules, ",")
			tags["validate"] = validateTag
			tagParts = append(tagParts, fmt.Sprintf("validate:\"%s\"", validateTag))
		}
	}

	return tags, renderTag(strings.Join(tagParts, " "))
}

// renderTag wraps a tag in a raw string literal, or an interpreted one when
// the tag itself holds a backtick.
func renderTag(tag string) string {
	if strings.Contains(tag, "`") {
		return strconv.Quote(tag)
	}
	return "`" + tag + "`"
}

func (c *Converter) omitempty(typeInfo models.TypeInfo, isRequired bool) bool {
	if typeInfo.IsPointer {
		return c.config.JSONTags.OmitemptyForPointers
	}
	if isRequired {
		return false
	}
	switch typeInfo.Kind {
	case models.Slice, models.Map:
		return c.config.JSONTags.OmitemptyForSlices
	}
	return false
}

// validationRules builds the validate rules for a field from its schema
// constraints and the configured rules
func (c *Converter) validationRules(jsonKey string, schema *Schema, isRequired bool) []string {
	var rules []string

	// String validations
	if schema.MinLength != nil && schema.MaxLength != nil && *schema.MinLength == *schema.MaxLength {
		rules = append(rules, fmt.Sprintf("len=%d", *schema.MinLength))
	} else {
		if schema.MinLength != nil {
			rules = append(rules, fmt.Sprintf("min=%d", *schema.MinLength))
		}
		if schema.MaxLength != nil {
			rules = append(rules, fmt.Sprintf("max=%d", *schema.MaxLength))
		}
	}
	if rule, ok := formatRules[schema.Format]; ok {
		rules = append(rules, rule)
	}

	// Numeric validations
	rules = append(rules, lowerBound(schema)...)
	rules = append(rules, upperBound(schema)...)

	// Array validations
	if schema.MinItems != nil {
		rules = append(rules, fmt.Sprintf("min=%d", *schema.MinItems))
	}
	if schema.MaxItems != nil {
		rules = append(rules, fmt.Sprintf("max=%d", *schema.MaxItems))
	}
	if schema.UniqueItems {
		rules = append(rules, "unique")
	}

	if rule := literalRule(schema); rule != "" {
		rules = append(rules, rule)
	}

	for _, extra := range c.config.FindValidationRules(jsonKey) {
		if !contains(rules, extra) {
			rules = append(rules, extra)
		}
	}

	if isRequired {
		return append([]string{"required"}, rules...)
	}
	if len(rules) > 0 {
		return append([]string{"omitempty"}, rules...)
	}
	return nil
}

// lowerBound handles minimum together with exclusiveMinimum, which is a
// number since draft-06 and a boolean modifier of minimum in draft-04
func lowerBound(schema *Schema) []string {
	exclusive, flag, isFlag := exclusiveBound(schema.ExclusiveMinimum)
	switch {
	case isFlag && flag && schema.Minimum != nil:
		return []string{"gt=" + formatNumber(*schema.Minimum)}
	case exclusive != nil:
		rules := []string{"gt=" + formatNumber(*exclusive)}
		if schema.Minimum != nil {
			rules = append([]string{"min=" + formatNumber(*schema.Minimum)}, rules...)
		}
		return rules
	case schema.Minimum != nil:
		return []string{"min=" + formatNumber(*schema.Minimum)}
	}
	return nil
}

func upperBound(schema *Schema) []string {
	exclusive, flag, isFlag := exclusiveBound(schema.ExclusiveMaximum)
	switch {
	case isFlag && flag && schema.Maximum != nil:
		return []string{"lt=" + formatNumber(*schema.Maximum)}
	case exclusive != nil:
		rules := []string{"lt=" + formatNumber(*exclusive)}
		if schema.Maximum != nil {
			rules = append([]string{"max=" + formatNumber(*schema.Maximum)}, rules...)
		}
		return rules
	case schema.Maximum != nil:
		return []string{"max=" + formatNumber(*schema.Maximum)}
	}
	return nil
}

// exclusiveBound decodes an exclusive bound keyword. It returns the numeric
// bound, or the draft-04 boolean flag with isFlag set.
func exclusiveBound(raw json.RawMessage) (bound *float64, flag bool, isFlag bool) {
	if len(raw) == 0 {
		return nil, false, false
	}
	if err := json.Unmarshal(raw, &flag); err == nil {
		return nil, flag, true
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n, false, false
	}
	return nil, false, false
}

// literalRule renders const, enum or a union of literals as an eq or oneof
// rule. Values that cannot be expressed in a struct tag drop the rule.
func literalRule(schema *Schema) string {
	values, ok := literalValues(schema)
	if !ok {
		return ""
	}
	if _, ok := literalKind(values); !ok {
		return ""
	}

	if len(values) == 1 {
		v, ok := literalParam(values[0], false)
		if !ok {
			return ""
		}
		return "eq=" + v
	}

	params := make([]string, 0, len(values))
	for _, value := range values {
		if _, isBool := value.(bool); isBool {
			return ""
		}
		v, ok := literalParam(value, true)
		if !ok {
			return ""
		}
		params = append(params, v)
	}
	return "oneof=" + strings.Join(params, " ")
}

// literalParam renders one value as a validator parameter. In a oneof list
// values holding spaces are single quoted.
func literalParam(value interface{}, quoteSpaces bool) (string, bool) {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case float64:
		s = formatNumber(v)
	case json.Number:
		s = v.String()
	case bool:
		s = strconv.FormatBool(v)
	default:
		return "", false
	}

	if s == "" || strings.ContainsAny(s, "`\"'\\") {
		return "", false
	}
	s = strings.ReplaceAll(s, ",", "0x2C")
	s = strings.ReplaceAll(s, "|", "0x7C")
	if quoteSpaces && strings.ContainsAny(s, " \t") {
		s = "'" + s + "'"
	}
	return s, true
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
