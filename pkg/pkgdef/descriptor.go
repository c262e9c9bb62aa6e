package pkgdef

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ConfigSlot is one configuration file a package carries: where the
// rendered file lands, and optionally a template it is rendered from.
type ConfigSlot struct {
	// Name is empty for a descriptor's single default slot.
	Name             string
	Location         string `validate:"required"`
	TemplateLocation string
}

// Descriptor is the compiled metadata for one package symbol. Descriptors
// are immutable after load and shared read-only between the evaluator and
// the reconciler.
type Descriptor struct {
	// Symbol is the name used in configuration files.
	Symbol string `validate:"required"`

	// ExternalName is the name the package manager knows the package
	// by. Defaults to Symbol when the definition omits it.
	ExternalName string `validate:"required"`

	// NonFree marks packages only available from a nonfree repository
	// listing. Missing such a listing is a plan warning, not an error.
	NonFree bool

	// Restricted marks packages that can only be built from a local
	// source-package checkout. Missing that checkout is a hard error.
	Restricted bool

	// Slots are the package's configuration slots, in declaration
	// order.
	Slots []ConfigSlot `validate:"dive"`

	// Source is the definition file the descriptor was compiled from,
	// empty for catalog entries.
	Source string
}

// Slot returns the named configuration slot. The empty name resolves the
// default slot: the slot declared without a name, or the only slot when
// the descriptor has exactly one.
func (d *Descriptor) Slot(name string) (ConfigSlot, bool) {
	if name == "" {
		if len(d.Slots) == 1 {
			return d.Slots[0], true
		}
		for _, slot := range d.Slots {
			if slot.Name == "" {
				return slot, true
			}
		}
		return ConfigSlot{}, false
	}
	for _, slot := range d.Slots {
		if slot.Name == name {
			return slot, true
		}
	}
	return ConfigSlot{}, false
}

var validate = validator.New()

func (d *Descriptor) check() error {
	if err := validate.Struct(d); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return fmt.Errorf("field %s failed rule %q", errs[0].Namespace(), errs[0].Tag())
		}
		return err
	}
	return nil
}
