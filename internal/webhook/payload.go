package webhook

// Typed view of the Meta webhook delivery payload. Only the fields the
// pipeline reads are declared; everything else in the notification is
// ignored.

type Payload struct {
	Entries []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

type Value struct {
	Contacts []Contact `json:"contacts"`
	Messages []Message `json:"messages"`
}

type Contact struct {
	WaID    string  `json:"wa_id"`
	Profile Profile `json:"profile"`
}

type Profile struct {
	Name string `json:"name"`
}

type Message struct {
	From string `json:"from"`
	Type string `json:"type"`
	Text *Text  `json:"text"`
}

type Text struct {
	Body string `json:"body"`
}
