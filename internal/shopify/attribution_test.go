package shopify

import "testing"

func TestSessionIDFromOrder(t *testing.T) {
	cases := []struct {
		name  string
		order *Order
		want  string
	}{
		{
			name: "note attribute sessionId",
			order: &Order{
				NoteAttributes: []NameValue{{Name: "sessionId", Value: "sess-abc"}},
			},
			want: "sess-abc",
		},
		{
			name: "note attribute _chatbot_session",
			order: &Order{
				NoteAttributes: []NameValue{
					{Name: "gift_wrap", Value: "yes"},
					{Name: "_chatbot_session", Value: "sess-def"},
				},
			},
			want: "sess-def",
		},
		{
			name: "line item property",
			order: &Order{
				LineItems: []OrderLineItem{
					{Title: "Creatine", Properties: []NameValue{{Name: "sessionId", Value: "sess-li"}}},
				},
			},
			want: "sess-li",
		},
		{
			name:  "note regex colon",
			order: &Order{Note: "placed from chat, sessionId: sess-note1"},
			want:  "sess-note1",
		},
		{
			name:  "note regex equals",
			order: &Order{Note: "_chatbot_session=sess-note2 thanks"},
			want:  "sess-note2",
		},
		{
			name: "note attribute wins over line item and note",
			order: &Order{
				Note:           "sessionId: from-note",
				NoteAttributes: []NameValue{{Name: "sessionId", Value: "from-attr"}},
				LineItems: []OrderLineItem{
					{Properties: []NameValue{{Name: "sessionId", Value: "from-li"}}},
				},
			},
			want: "from-attr",
		},
		{
			name: "line item wins over note",
			order: &Order{
				Note: "sessionId: from-note",
				LineItems: []OrderLineItem{
					{Properties: []NameValue{{Name: "_chatbot_session", Value: "from-li"}}},
				},
			},
			want: "from-li",
		},
		{
			name: "blank attribute value falls through",
			order: &Order{
				NoteAttributes: []NameValue{{Name: "sessionId", Value: "  "}},
				Note:           "sessionId: sess-fallback",
			},
			want: "sess-fallback",
		},
		{
			name:  "no sources",
			order: &Order{Note: "customer asked for fast shipping"},
			want:  "",
		},
		{
			name: "unrelated attributes only",
			order: &Order{
				NoteAttributes: []NameValue{{Name: "utm_source", Value: "newsletter"}},
			},
			want: "",
		},
		{name: "nil order", order: nil, want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SessionIDFromOrder(tc.order); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}
