package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kainan-app/api/internal/store"
	"github.com/shopspring/decimal"
)

// Composition errors.
var (
	ErrItemUnavailable    = errors.New("menu item is not available")
	ErrVariantRequired    = errors.New("a variant must be selected for this item")
	ErrVariantMismatch    = errors.New("variant does not belong to menu item")
	ErrVariantUnavailable = errors.New("variant is not available")
	ErrChoiceRequired     = errors.New("a choice is required for this group")
	ErrChoiceNotFound     = errors.New("selected choice not found in group")
	ErrChoiceUnavailable  = errors.New("selected choice is not available")
)

// LineSelection is a customer's selection for one order line: the menu item,
// an optional variant, and for bundles the chosen option per choice group
// (group ID -> choice name).
type LineSelection struct {
	MenuItemID      uuid.UUID
	VariantID       uuid.UUID // uuid.Nil when no variant selected
	Quantity        int32
	SelectedChoices map[string]string
}

// SelectedChoice is a priced snapshot of one bundle choice at order time.
type SelectedChoice struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

// BundleEntry is one resolved constituent of an ordered bundle.
type BundleEntry struct {
	MenuItemID  uuid.UUID  `json:"menu_item_id"`
	Name        string     `json:"name"`
	VariantID   *uuid.UUID `json:"variant_id,omitempty"`
	VariantName string     `json:"variant_name,omitempty"`
}

// ResolvedLine is a fully priced order line produced by the composition
// builder. Its unit price is fixed here and never re-derived from the menu.
type ResolvedLine struct {
	MenuItemID      uuid.UUID
	DisplayName     string
	UnitPrice       decimal.Decimal
	Quantity        int32
	VariantID       uuid.UUID
	VariantName     string
	SelectedChoices map[string]SelectedChoice
	BundleItems     []BundleEntry
}

// menuIndex is a per-request map-by-id view of the menu rows a line needs.
// Built once per order so choice resolution never does linear store scans.
type menuIndex struct {
	item         store.MenuItem
	variants     []store.MenuItemVariant
	variantByID  map[uuid.UUID]store.MenuItemVariant
	choiceGroups []store.ChoiceGroup
	constituents []store.BundleConstituent
	itemNameByID map[uuid.UUID]string
}

func newMenuIndex(item store.MenuItem, variants []store.MenuItemVariant,
	groups []store.ChoiceGroup, constituents []store.BundleConstituent,
	itemNameByID map[uuid.UUID]string) *menuIndex {

	byID := make(map[uuid.UUID]store.MenuItemVariant, len(variants))
	for _, v := range variants {
		byID[v.ID] = v
	}
	return &menuIndex{
		item:         item,
		variants:     variants,
		variantByID:  byID,
		choiceGroups: groups,
		constituents: constituents,
		itemNameByID: itemNameByID,
	}
}

// resolveLine turns a selection into a priced order line.
//
// Pricing: items with variants use the selected variant's price; bundles use
// the bundle's own fixed price regardless of choices; everything else uses
// the base price.
func resolveLine(idx *menuIndex, sel LineSelection) (ResolvedLine, error) {
	if sel.Quantity <= 0 {
		return ResolvedLine{}, ErrInvalidQuantity
	}
	if !idx.item.IsAvailable {
		return ResolvedLine{}, fmt.Errorf("%w: %s", ErrItemUnavailable, idx.item.Name)
	}

	line := ResolvedLine{
		MenuItemID:  idx.item.ID,
		DisplayName: idx.item.Name,
		UnitPrice:   numericToDecimal(idx.item.BasePrice),
		Quantity:    sel.Quantity,
	}

	if len(idx.variants) > 0 {
		if sel.VariantID == uuid.Nil {
			return ResolvedLine{}, fmt.Errorf("%w: %s", ErrVariantRequired, idx.item.Name)
		}
		v, ok := idx.variantByID[sel.VariantID]
		if !ok {
			return ResolvedLine{}, ErrVariantMismatch
		}
		if !v.IsAvailable {
			return ResolvedLine{}, fmt.Errorf("%w: %s", ErrVariantUnavailable, v.Name)
		}
		line.VariantID = v.ID
		line.VariantName = v.Name
		line.UnitPrice = numericToDecimal(v.Price)
		line.DisplayName = idx.item.Name + " - " + v.Name
	}

	if idx.item.IsBundle {
		if err := resolveBundle(idx, sel, &line); err != nil {
			return ResolvedLine{}, err
		}
	}

	return line, nil
}

// resolveBundle fills in selected choices and the resolved constituent list.
// The bundle's price is untouched: choices affect composition, not price.
func resolveBundle(idx *menuIndex, sel LineSelection, line *ResolvedLine) error {
	selected := make(map[string]SelectedChoice)
	chosenItemIDs := make(map[uuid.UUID]bool)
	var chosenEntries []BundleEntry
	var choiceNames []string

	// Constituents referenced by any choice group are customer-selectable;
	// the rest are fixed and always included.
	referenced := make(map[uuid.UUID]bool)
	for _, g := range idx.choiceGroups {
		for _, c := range g.Choices {
			if c.MenuItemID != nil {
				referenced[*c.MenuItemID] = true
			}
		}
	}

	for _, g := range idx.choiceGroups {
		choiceName, picked := sel.SelectedChoices[g.ID.String()]
		if !picked {
			if g.IsRequired {
				return fmt.Errorf("%w: %s", ErrChoiceRequired, g.Name)
			}
			continue
		}

		var found *store.ChoiceOption
		for i := range g.Choices {
			if g.Choices[i].Name == choiceName {
				found = &g.Choices[i]
				break
			}
		}
		if found == nil {
			return fmt.Errorf("%w: %q in group %s", ErrChoiceNotFound, choiceName, g.Name)
		}
		if !found.IsAvailable {
			return fmt.Errorf("%w: %s", ErrChoiceUnavailable, found.Name)
		}

		selected[g.ID.String()] = SelectedChoice{Name: found.Name, Price: found.Price}
		choiceNames = append(choiceNames, found.Name)

		entry := BundleEntry{Name: found.Name}
		if found.MenuItemID != nil {
			entry.MenuItemID = *found.MenuItemID
			chosenItemIDs[*found.MenuItemID] = true
			if name, ok := idx.itemNameByID[*found.MenuItemID]; ok {
				entry.Name = name
			}
		}
		if found.VariantID != nil {
			entry.VariantID = found.VariantID
			if v, ok := idx.variantByID[*found.VariantID]; ok {
				entry.VariantName = v.Name
			}
		}
		chosenEntries = append(chosenEntries, entry)
	}

	var bundleItems []BundleEntry
	for _, c := range idx.constituents {
		if referenced[c.MenuItemID] {
			continue
		}
		name := idx.itemNameByID[c.MenuItemID]
		bundleItems = append(bundleItems, BundleEntry{MenuItemID: c.MenuItemID, Name: name})
	}
	bundleItems = append(bundleItems, chosenEntries...)

	line.SelectedChoices = selected
	line.BundleItems = bundleItems
	if len(choiceNames) > 0 {
		line.DisplayName = line.DisplayName + " (" + strings.Join(choiceNames, ", ") + ")"
	}
	return nil
}
