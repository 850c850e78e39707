package controlpanel

import "strings"

// Attr names a value that is only known once the stack is provisioned.
type Attr string

const (
	AttrAccount             Attr = "AWS::AccountId"
	AttrRegion              Attr = "AWS::Region"
	AttrLoadBalancerDNSName Attr = "LoadBalancer.DNSName"
	AttrAuthTableARN        Attr = "AuthTable.Arn"
)

// Part is one segment of a Value: literal text or a provisioning-time attribute.
type Part struct {
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
	Attr Attr   `json:"attr,omitempty" yaml:"attr,omitempty"`
}

// Value is a string that may embed provisioning-time attributes.
type Value []Part

// Lit returns a literal value.
func Lit(s string) Value {
	return Value{{Text: s}}
}

// Ref returns a value referring to a provisioning-time attribute.
func Ref(a Attr) Value {
	return Value{{Attr: a}}
}

// Join concatenates values, merging adjacent literal parts.
func Join(values ...Value) Value {
	var out Value
	for _, v := range values {
		for _, p := range v {
			if p.Attr == "" && len(out) > 0 && out[len(out)-1].Attr == "" {
				out[len(out)-1].Text += p.Text
				continue
			}
			out = append(out, p)
		}
	}
	return out
}

// IsLiteral reports whether v contains no attribute references.
func (v Value) IsLiteral() bool {
	for _, p := range v {
		if p.Attr != "" {
			return false
		}
	}
	return true
}

// String renders v with attributes as ${Attr} placeholders.
func (v Value) String() string {
	return v.Render(func(a Attr) string { return "${" + string(a) + "}" })
}

// Render renders v, resolving attributes with resolve.
func (v Value) Render(resolve func(Attr) string) string {
	var sb strings.Builder
	for _, p := range v {
		if p.Attr != "" {
			sb.WriteString(resolve(p.Attr))
			continue
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}
