package record

import "fmt"

// Category names a record type, e.g. "npc" or "encounter_zone".
type Category string

const (
	CategoryNPC           Category = "npc"
	CategoryEncounterZone Category = "encounter_zone"
	CategoryLocation      Category = "location"
	CategoryKeyword       Category = "keyword"
	CategoryClass         Category = "class"
	CategoryLeveledNPC    Category = "leveled_npc"
	CategoryGameSetting   Category = "game_setting"
	CategoryOutfit        Category = "outfit"
)

// categories lists every known category in declaration order.
var categories = []Category{
	CategoryNPC,
	CategoryEncounterZone,
	CategoryLocation,
	CategoryKeyword,
	CategoryClass,
	CategoryLeveledNPC,
	CategoryGameSetting,
	CategoryOutfit,
}

// Categories returns every known category in declaration order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// New returns an empty record of the concrete type for category c, ready to
// be decoded into.
func New(c Category) (Record, error) {
	switch c {
	case CategoryNPC:
		return &NPC{}, nil
	case CategoryEncounterZone:
		return &EncounterZone{}, nil
	case CategoryLocation:
		return &Location{}, nil
	case CategoryKeyword:
		return &Keyword{}, nil
	case CategoryClass:
		return &Class{}, nil
	case CategoryLeveledNPC:
		return &LeveledNPC{}, nil
	case CategoryGameSetting:
		return &GameSetting{}, nil
	case CategoryOutfit:
		return &Outfit{}, nil
	default:
		return nil, fmt.Errorf("unknown record category %q", c)
	}
}
