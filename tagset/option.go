package tagset

// TagOption is the select-box form of a tag: label and value are both the
// tag name.
type TagOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

func OptionFor(t Tag) TagOption { return TagOption{Label: t.Name, Value: t.Name} }

func Options(tags []Tag) []TagOption {
	out := make([]TagOption, len(tags))
	for i, t := range tags {
		out[i] = OptionFor(t)
	}
	return out
}

// Labels returns the option values in order, the input Reconcile expects.
func Labels(opts []TagOption) []string {
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = o.Value
	}
	return out
}
