package shopify

import (
	"regexp"
	"strings"
)

// The chat widget stamps its session id onto carts as a cart attribute, which
// Shopify carries through checkout as an order note attribute. Older widget
// builds put it on line-item properties or into the free-text order note, so
// attribution checks all three, in that order.

var sessionAttributeNames = []string{"sessionId", "_chatbot_session"}

var noteSessionRe = regexp.MustCompile(`(?:sessionId|_chatbot_session)\s*[:=]\s*([A-Za-z0-9_-]+)`)

// SessionIDFromOrder returns the chat session id recorded on the order, or ""
// when the order cannot be linked to a chat session.
func SessionIDFromOrder(o *Order) string {
	if o == nil {
		return ""
	}

	for _, attr := range o.NoteAttributes {
		if matchesSessionName(attr.Name) && strings.TrimSpace(attr.Value) != "" {
			return strings.TrimSpace(attr.Value)
		}
	}

	for _, li := range o.LineItems {
		for _, prop := range li.Properties {
			if matchesSessionName(prop.Name) && strings.TrimSpace(prop.Value) != "" {
				return strings.TrimSpace(prop.Value)
			}
		}
	}

	if m := noteSessionRe.FindStringSubmatch(o.Note); len(m) == 2 {
		return m[1]
	}

	return ""
}

func matchesSessionName(name string) bool {
	for _, n := range sessionAttributeNames {
		if strings.EqualFold(strings.TrimSpace(name), n) {
			return true
		}
	}
	return false
}
