package models

// Option is one selectable entry of an options template, also used for
// search-result summaries.
type Option struct {
	OptionID string `json:"optionId"`
	Label    string `json:"description"`
	Selected bool   `json:"selected"`
}

// Options is the value held by an options template.
type Options struct {
	Options         []Option `json:"options"`
	SingleSelection bool     `json:"singleSelection"`
}

// Selected returns the selected options in list order.
func (o Options) Selected() []Option {
	var selected []Option
	for _, option := range o.Options {
		if option.Selected {
			selected = append(selected, option)
		}
	}
	return selected
}

// Load replaces the option list. With keepSelected the options currently
// selected stay in the list, selected and first, and incoming options with
// the same id are not repeated.
func (o *Options) Load(options []Option, keepSelected bool) {
	if !keepSelected {
		o.Options = append([]Option(nil), options...)
		return
	}

	kept := o.Selected()
	seen := make(map[string]struct{}, len(kept))
	loaded := make([]Option, 0, len(kept)+len(options))
	for _, option := range kept {
		seen[option.OptionID] = struct{}{}
		loaded = append(loaded, option)
	}
	for _, option := range options {
		if _, ok := seen[option.OptionID]; ok {
			continue
		}
		option.Selected = false
		loaded = append(loaded, option)
	}
	o.Options = loaded
}

// Select marks the option with the given id as selected. In single selection
// mode every other option is cleared.
func (o *Options) Select(optionID string) bool {
	found := false
	for i := range o.Options {
		if o.Options[i].OptionID == optionID {
			o.Options[i].Selected = true
			found = true
		} else if o.SingleSelection {
			o.Options[i].Selected = false
		}
	}
	return found
}

func (o Options) Equal(other Options) bool {
	if o.SingleSelection != other.SingleSelection || len(o.Options) != len(other.Options) {
		return false
	}
	for i := range o.Options {
		if o.Options[i] != other.Options[i] {
			return false
		}
	}
	return true
}
