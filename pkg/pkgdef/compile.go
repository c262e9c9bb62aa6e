package pkgdef

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/veld-sh/veld/pkg/eval"
	"github.com/veld-sh/veld/pkg/lang"
)

// compileUnit reduces one definition file to a descriptor. Every failure
// is a DefinitionFormatError local to this unit.
func compileUnit(file string, logger zerolog.Logger) (*Descriptor, error) {
	src, err := os.ReadFile(file)
	if err != nil {
		return nil, &DefinitionFormatError{File: file, Reason: err.Error()}
	}

	stmts, err := lang.Parse(file, string(src))
	if err != nil {
		return nil, &DefinitionFormatError{File: file, Reason: err.Error()}
	}
	if len(stmts) != 1 {
		return nil, &DefinitionFormatError{File: file, Reason: "a definition unit binds exactly one symbol"}
	}

	assign, ok := stmts[0].(*lang.AssignExpr)
	if !ok {
		return nil, &DefinitionFormatError{File: file, Reason: "top-level statement is not a binding"}
	}
	symbol, ok := assign.Target.(*lang.SymbolExpr)
	if !ok {
		return nil, &DefinitionFormatError{File: file, Reason: "binding target is not a plain symbol"}
	}

	ev := eval.NewEvaluator(eval.FileResolver{}, logger)
	value, err := ev.EvalValue(file, assign.Value)
	if err != nil {
		return nil, &DefinitionFormatError{File: file, Symbol: symbol.Name, Reason: err.Error()}
	}
	body, ok := value.(*eval.Map)
	if !ok {
		return nil, &DefinitionFormatError{
			File:   file,
			Symbol: symbol.Name,
			Reason: "bound value is a " + value.Kind() + ", expected a map",
		}
	}

	return compileDescriptor(file, symbol.Name, body)
}

func compileDescriptor(file, symbol string, body *eval.Map) (*Descriptor, error) {
	desc := &Descriptor{
		Symbol:       symbol,
		ExternalName: symbol,
		Source:       file,
	}
	formatErr := func(reason string) error {
		return &DefinitionFormatError{File: file, Symbol: symbol, Reason: reason}
	}

	for _, key := range body.Keys() {
		value, _ := body.Get(key)
		switch key {
		case "name":
			name, ok := value.(eval.String)
			if !ok {
				return nil, formatErr("`name` must be a string, got " + value.Kind())
			}
			desc.ExternalName = string(name)
		case "is_nonfree":
			flag, ok := value.(eval.Bool)
			if !ok {
				return nil, formatErr("`is_nonfree` must be a boolean, got " + value.Kind())
			}
			desc.NonFree = bool(flag)
		case "is_restricted":
			flag, ok := value.(eval.Bool)
			if !ok {
				return nil, formatErr("`is_restricted` must be a boolean, got " + value.Kind())
			}
			desc.Restricted = bool(flag)
		case "configuration":
			config, ok := value.(*eval.Map)
			if !ok {
				return nil, formatErr("`configuration` must be a map, got " + value.Kind())
			}
			slots, err := compileSlots(config, formatErr)
			if err != nil {
				return nil, err
			}
			desc.Slots = slots
		default:
			return nil, formatErr("unknown descriptor field " + key)
		}
	}

	if err := desc.check(); err != nil {
		return nil, formatErr(err.Error())
	}
	return desc, nil
}

// compileSlots accepts both descriptor configuration shapes: a single
// {location; template_location?} pair becomes the default slot, and a
// map of such pairs becomes named slots in declaration order.
func compileSlots(config *eval.Map, formatErr func(string) error) ([]ConfigSlot, error) {
	if _, direct := config.Get("location"); direct {
		slot, err := compileSlot("", config, formatErr)
		if err != nil {
			return nil, err
		}
		return []ConfigSlot{slot}, nil
	}

	slots := make([]ConfigSlot, 0, config.Len())
	for _, name := range config.Keys() {
		value, _ := config.Get(name)
		pair, ok := value.(*eval.Map)
		if !ok {
			return nil, formatErr("configuration slot " + name + " must be a map, got " + value.Kind())
		}
		slot, err := compileSlot(name, pair, formatErr)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func compileSlot(name string, pair *eval.Map, formatErr func(string) error) (ConfigSlot, error) {
	slot := ConfigSlot{Name: name}
	for _, key := range pair.Keys() {
		value, _ := pair.Get(key)
		text, ok := slotText(value)
		if !ok {
			return slot, formatErr("slot field " + key + " must be a string or path, got " + value.Kind())
		}
		switch key {
		case "location":
			slot.Location = text
		case "template_location":
			slot.TemplateLocation = text
		default:
			return slot, formatErr("unknown slot field " + key)
		}
	}
	if slot.Location == "" {
		return slot, formatErr("configuration slot " + name + " is missing `location`")
	}
	return slot, nil
}

func slotText(v eval.Value) (string, bool) {
	switch t := v.(type) {
	case eval.String:
		return string(t), true
	case eval.Path:
		return string(t), true
	}
	return "", false
}
