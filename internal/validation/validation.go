// Package validation checks builds, drafts and notifications before they
// reach a store, producing domain.ValidationError.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dom/wedge-builds/internal/domain"
	"github.com/go-playground/validator/v10"
)

// Catalog is the subset of the static catalog used for reference checks.
type Catalog interface {
	Character(id string) (*domain.Character, bool)
	Weapon(id string) (*domain.Weapon, bool)
	Mod(name string) (*domain.Mod, bool)
}

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v       *validator.Validate
	catalog Catalog
}

// New creates a validator. With a nil catalog only field constraints are
// checked.
func New(catalog Catalog) *Validator {
	v := validator.New()

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	return &Validator{v: v, catalog: catalog}
}

// Struct validates s against its validate tags.
func (v *Validator) Struct(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fields := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		fields[fieldPath(e)] = friendlyMessage(e)
	}
	return &domain.ValidationError{Fields: fields}
}

// fieldPath drops the root struct name from the namespace so nested
// fields read "mods[2]" rather than "BuildContent.mods[2]".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	if i := strings.LastIndex(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return ns
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "max":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must not exceed %s entries", e.Param())
		}
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "min":
		return "must be at least " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "gtfield":
		return "must be after " + e.Param()
	default:
		return "is invalid"
	}
}

// BuildContent validates the user-authored part of a build or draft,
// including references into the catalog.
func (v *Validator) BuildContent(c *domain.BuildContent) error {
	if err := v.Struct(c); err != nil {
		return err
	}

	fields := map[string]string{}
	v.checkSupportMods(c, fields)
	if v.catalog != nil {
		v.checkReferences(c, fields)
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

func (v *Validator) checkSupportMods(c *domain.BuildContent, fields map[string]string) {
	for key, mods := range c.SupportMods.Data() {
		if !isSupportSlot(key) {
			fields["supportMods."+key] = "is not a support slot"
			continue
		}
		if len(mods) > domain.DefaultSupportCapacity {
			fields["supportMods."+key] = fmt.Sprintf("must not exceed %d entries", domain.DefaultSupportCapacity)
		}
	}
}

func isSupportSlot(key string) bool {
	for _, s := range domain.SupportSlots {
		if s == key {
			return true
		}
	}
	return false
}

func (v *Validator) checkReferences(c *domain.BuildContent, fields map[string]string) {
	switch c.ItemType {
	case domain.ItemTypeCharacter:
		if _, ok := v.catalog.Character(c.ItemID); !ok {
			fields["itemId"] = "is not a known character"
		}
	case domain.ItemTypeWeapon:
		if _, ok := v.catalog.Weapon(c.ItemID); !ok {
			fields["itemId"] = "is not a known weapon"
		}
	}

	primes, centers := 0, 0
	for i, name := range c.Mods {
		m, ok := v.catalog.Mod(name)
		if !ok {
			fields[fmt.Sprintf("mods[%d]", i)] = "is not a known mod"
			continue
		}
		if m.IsPrimeMod {
			primes++
		}
		if m.CenterOnly {
			centers++
		}
	}
	var limits []string
	if primes > 1 {
		limits = append(limits, "must contain at most one prime mod")
	}
	if centers > 1 {
		limits = append(limits, "must contain at most one center-only mod")
	}
	if len(limits) > 0 {
		fields["mods"] = strings.Join(limits, "; ")
	}

	for i, id := range c.Team {
		if _, ok := v.catalog.Character(id); !ok {
			fields[fmt.Sprintf("team[%d]", i)] = "is not a known character"
		}
	}
	for i, id := range c.SupportWeapons {
		if _, ok := v.catalog.Weapon(id); !ok {
			fields[fmt.Sprintf("supportWeapons[%d]", i)] = "is not a known weapon"
		}
	}
	for key, mods := range c.SupportMods.Data() {
		for i, name := range mods {
			m, ok := v.catalog.Mod(name)
			if !ok {
				fields[fmt.Sprintf("supportMods.%s[%d]", key, i)] = "is not a known mod"
				continue
			}
			if m.IsPrimeMod || m.CenterOnly {
				fields[fmt.Sprintf("supportMods.%s[%d]", key, i)] = "must be a regular mod"
			}
		}
	}
}

// Notification validates a crafting timer.
func (v *Validator) Notification(n *domain.CraftingNotification) error {
	return v.Struct(n)
}
