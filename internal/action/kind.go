package action

import "strings"

// ResourceKind is the closed set of resources the dispatcher can provision.
type ResourceKind int

const (
	KindUnsupported ResourceKind = iota
	KindSQS
	KindSNS
)

func (k ResourceKind) String() string {
	switch k {
	case KindSQS:
		return "sqs"
	case KindSNS:
		return "sns"
	default:
		return "unsupported"
	}
}

// KindRule maps a case-insensitive substring of the free-text resource to a kind.
type KindRule struct {
	Needle string
	Kind   ResourceKind
}

// KindTable is checked in order; the first matching rule wins.
var KindTable = []KindRule{
	{Needle: "sqs", Kind: KindSQS},
	{Needle: "sns", Kind: KindSNS},
}

// ClassifyKind resolves free text such as "SQS Orders" to a ResourceKind.
func ClassifyKind(resource string) ResourceKind {
	return classifyWith(KindTable, resource)
}

func classifyWith(table []KindRule, resource string) ResourceKind {
	folded := strings.ToLower(resource)
	for _, rule := range table {
		if strings.Contains(folded, rule.Needle) {
			return rule.Kind
		}
	}
	return KindUnsupported
}
